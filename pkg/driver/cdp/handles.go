package cdp

import (
	"github.com/go-rod/rod"
)

// maxHandles bounds how many remote element objects the driver keeps alive.
const maxHandles = 512

// handles maps element ids to rod elements. Once full, the oldest handles
// are evicted first; the caller releases them in the browser.
type handles struct {
	limit int
	order []string
	els   map[string]*rod.Element
}

func (h *handles) add(el *rod.Element) (string, []*rod.Element) {
	if h.els == nil {
		h.els = make(map[string]*rod.Element)
	}
	limit := h.limit
	if limit <= 0 {
		limit = maxHandles
	}
	id := string(el.Object.ObjectID)
	if _, ok := h.els[id]; ok {
		h.els[id] = el
		return id, nil
	}
	h.els[id] = el
	h.order = append(h.order, id)

	var evicted []*rod.Element
	for len(h.order) > limit {
		oldest := h.order[0]
		h.order = h.order[1:]
		evicted = append(evicted, h.els[oldest])
		delete(h.els, oldest)
	}
	return id, evicted
}

func (h *handles) get(id string) (*rod.Element, bool) {
	el, ok := h.els[id]
	return el, ok
}

func (h *handles) len() int {
	return len(h.els)
}

// reset forgets every handle. Objects of a replaced document die with it.
func (h *handles) reset() {
	h.order = nil
	h.els = nil
}
