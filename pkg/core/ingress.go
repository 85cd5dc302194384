package core

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-effects/pkg/codec"
	"github.com/joeydtaylor/steeze-effects/pkg/store"
	httpx "github.com/joeydtaylor/steeze-effects/pkg/transport/httpx"
	"go.uber.org/zap"
)

const maxActionBytes = 1 << 20

// ingressCodec returns nil when each action keeps its registered codec.
func ingressCodec(name string) (codec.Codec, error) {
	if name == "" {
		return nil, nil
	}
	c, err := codec.ByName(name)
	if err != nil {
		return nil, fmt.Errorf("ingress: %w", err)
	}
	return c, nil
}

type accepted struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
}

func dispatchAction(d BuildDeps, override codec.Codec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := httpx.URLParam(r, "type")
		b, ok := d.Actions.Lookup(name)
		if !ok {
			http.Error(w, "unknown action "+name, http.StatusNotFound)
			return
		}
		if override != nil {
			b.Codec = override
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxActionBytes))
		if err != nil {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return
		}
		action, err := b.Decode(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rid := chimd.GetReqID(r.Context())
		if err := d.Store.TryDispatch(action); err != nil {
			d.Log.Warn("ingress rejected",
				zap.String("type", name),
				zap.String("requestId", rid),
				zap.Error(err),
			)
			if errors.Is(err, store.ErrFull) {
				w.Header().Set("Retry-After", "1")
			}
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusAccepted, accepted{Type: name, RequestID: rid})
	}
}

func listActions(d BuildDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, d.Actions.Names())
	}
}

type effectView struct {
	Effect   string `json:"effect"`
	Owner    string `json:"owner,omitempty"`
	Method   string `json:"method"`
	ReactsTo string `json:"reactsTo"`
	Shape    string `json:"shape"`
	Static   bool   `json:"static"`
}

func listEffects(d BuildDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		invs := d.Store.Invokers()
		out := make([]effectView, 0, len(invs))
		for _, inv := range invs {
			b := inv.Binding()
			v := effectView{
				Effect:   b.Name(),
				Method:   b.Method,
				ReactsTo: d.actionName(b.ReactsTo),
				Shape:    b.Shape.String(),
				Static:   !b.RequiresInstance,
			}
			if b.Owner != nil {
				v.Owner = b.Owner.String()
			}
			out = append(out, v)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (d BuildDeps) actionName(t reflect.Type) string {
	if n, ok := d.Actions.NameOfType(t); ok {
		return n
	}
	return t.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := codec.JSON.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
