package preview

import (
	"encoding/json"
	"strings"
)

// bindingName is the page-global function the init script calls to hand an
// input event to Go.
const bindingName = "__canvasEvent"

// runtimeScript installs the page half of the mirror: a node registry
// indexed by mirror key, the mutation applier, and capture-phase input
// listeners. It is idempotent so it can run both as an init script and
// against the already loaded page.
const runtimeScript = `(() => {
  if (window.__canvas) return;
  const c = window.__canvas = { nodes: [], editing: true };
  const node = (op) => {
    let el = c.nodes[op.key];
    for (const i of op.path || []) {
      if (!el) return null;
      el = el.children[i];
    }
    return el || null;
  };
  c.register = (el) => {
    c.nodes.push(el);
    for (const child of el.querySelectorAll('*')) c.nodes.push(child);
  };
  c.apply = (op) => {
    const el = node(op);
    if (!el) {
      for (let i = 0; i < (op.count || 0); i++) c.nodes.push(null);
      return false;
    }
    switch (op.kind) {
      case 'style':
        if (op.value === '') el.style.removeProperty(op.name);
        else el.style.setProperty(op.name, op.value);
        break;
      case 'attr': el.setAttribute(op.name, op.value); break;
      case 'attr_remove': el.removeAttribute(op.name); break;
      case 'text': el.textContent = op.value; break;
      case 'insert':
        el.insertAdjacentHTML('beforeend', op.html);
        if (op.count) c.register(el.lastElementChild);
        break;
      case 'remove': el.remove(); break;
    }
    return true;
  };
  const send = (ev) => {
    if (typeof window.` + bindingName + ` === 'function') window.` + bindingName + `(ev);
  };
  const pointer = (type) => (e) => {
    if (!c.editing) return;
    e.preventDefault();
    e.stopPropagation();
    send({ type, x: e.clientX, y: e.clientY, button: e.button });
  };
  window.addEventListener('pointerdown', pointer('down'), true);
  window.addEventListener('pointermove', pointer('move'), true);
  window.addEventListener('pointerup', pointer('up'), true);
  window.addEventListener('dblclick', pointer('dblclick'), true);
  for (const t of ['click', 'contextmenu', 'mousedown', 'mouseup']) {
    window.addEventListener(t, (e) => { if (c.editing) { e.preventDefault(); e.stopPropagation(); } }, true);
  }
  window.addEventListener('keydown', (e) => {
    if (!c.editing) return;
    if (e.key === 'Escape' || e.key === 'Enter' || e.key === 'Delete' || e.key === 'Backspace') {
      if (e.target && e.target.isContentEditable && e.key !== 'Escape' && e.key !== 'Enter') return;
      send({ type: 'key', key: e.key });
    }
  }, true);
  window.addEventListener('input', (e) => {
    if (!c.editing || !e.target) return;
    send({ type: 'input', text: e.target.textContent || '' });
  }, true);
  window.addEventListener('scroll', () => {
    send({ type: 'scroll', x: window.scrollX, y: window.scrollY });
  }, { passive: true });
})()`

// captureScript registers every element of the page in document order and
// returns the scroll offset plus, per element, its page-absolute box and
// the requested computed styles.
const captureScript = `(props) => {
  const c = window.__canvas;
  c.nodes = Array.from(document.querySelectorAll('*'));
  return measure(props);
  function measure(props) {
    const sx = window.scrollX, sy = window.scrollY;
    return {
      scrollX: sx,
      scrollY: sy,
      nodes: c.nodes.map((el) => {
        if (!el || !el.isConnected) return null;
        const r = el.getBoundingClientRect();
        const cs = getComputedStyle(el);
        const styles = {};
        for (const p of props) styles[p] = cs.getPropertyValue(p);
        return { x: r.left + sx, y: r.top + sy, w: r.width, h: r.height, styles };
      }),
    };
  }
}`

// measureScript is captureScript without re-registering nodes.
var measureScript = strings.Replace(captureScript,
	"c.nodes = Array.from(document.querySelectorAll('*'));\n", "", 1)

const applyScript = `(op) => window.__canvas.apply(op)`

const editingScript = `(on) => { window.__canvas.editing = on; }`

// measurement is what captureScript and measureScript return.
type measurement struct {
	ScrollX float64        `json:"scrollX"`
	ScrollY float64        `json:"scrollY"`
	Nodes   []*nodeMeasure `json:"nodes"`
}

type nodeMeasure struct {
	X      float64           `json:"x"`
	Y      float64           `json:"y"`
	W      float64           `json:"w"`
	H      float64           `json:"h"`
	Styles map[string]string `json:"styles"`
}

// decodeResult converts a generic Evaluate result into dst.
func decodeResult(v any, dst any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
