package main

import (
	"fmt"
	"net/http"
)

// countHandler answers every request with the updated request count.
type countHandler struct {
	counter *RequestCounter
}

func newCountHandler(counter *RequestCounter) *countHandler {
	return &countHandler{counter: counter}
}

func (h *countHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hndlLog.Infof("%s %s %s from %s (%s)", r.Method, r.RequestURI,
		r.Proto, r.RemoteAddr, r.UserAgent())

	count := h.counter.IncrementAndRead()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, "Num of requests: %d", count); err != nil {
		hndlLog.Debugf("unable to write response to %s: %v",
			r.RemoteAddr, err)
	}
}
