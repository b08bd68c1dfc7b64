package frontend

import (
	"net/http"
	"strings"

	"github.com/golang/gddo/httputil/header"
)

// IsWebSocketUpgrade checks whether the given request's headers indicate a
// websocket upgrade request.
func IsWebSocketUpgrade(request *http.Request) bool {
	isUpgrade := false
	for _, value := range header.ParseList(request.Header, "Connection") {
		if strings.EqualFold(value, "upgrade") {
			isUpgrade = true
			break
		}
	}

	if isUpgrade {
		for _, value := range header.ParseList(request.Header, "Upgrade") {
			if strings.EqualFold(value, "websocket") {
				return true
			}
		}
	}

	return false
}
