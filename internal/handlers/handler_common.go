package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// accountIDFromContext returns the authenticated account id set by the JWT
// middleware, or "" when the request is unauthenticated.
func accountIDFromContext(c echo.Context) string {
	id, _ := c.Get("accountID").(string)
	return id
}

// streamSSE writes snapshots from ch to the response as server-sent events
// until the channel closes or the client goes away.
func streamSSE[T any](c echo.Context, ch <-chan T) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(snap)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return nil // client gone
			}
			w.Flush()
		}
	}
}
