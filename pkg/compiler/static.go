package compiler

// Title is the first line of every compiled document.
const Title = "# Visual Edit Instructions"

// executionPolicy closes every document. %d is the last step number.
const executionPolicy = `## Execution Policy

1. Execute the steps strictly in order, from [1] to [%d]. Do not reorder, merge or skip steps.
2. After each step, verify its Acceptance criterion against the running page before starting the next step.
3. If a criterion cannot be met, halt immediately and report the step number, the criterion and the observed state. Do not attempt later steps.
4. Change only what a step asks for. Leave unrelated markup, styles and copy untouched.`

const emptyPolicy = `## Execution Policy

No changes were requested. Do not modify the project.`

const referenceNote = "attached. Match spacing, color and typography to the reference overlay where a step leaves them open."
