package booking

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// LinkProvisioner allocates the meeting endpoint of a session.
type LinkProvisioner interface {
	Provision(ctx context.Context, sessionID string) (string, error)
}

// RoomLinkProvisioner derives the link from the session id, so retries yield the same link.
type RoomLinkProvisioner struct {
	baseURL string
}

func NewRoomLinkProvisioner(baseURL string) *RoomLinkProvisioner {
	return &RoomLinkProvisioner{baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *RoomLinkProvisioner) Provision(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", Permanent(errors.New("empty session id"))
	}
	return p.baseURL + "/session-" + url.PathEscape(sessionID), nil
}
