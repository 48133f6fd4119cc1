package wsprogress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublish_NoClientDoesNotBlock(t *testing.T) {
	h := NewHub()
	assert.NotPanics(t, func() {
		h.Publish("scan-1", "enumerate", "discovered 5 candidates")
	})
}

func TestPublish_DeliversToRegisteredClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := &Client{hub: h, send: make(chan []byte, 1)}
	h.register <- client

	h.Publish("scan-1", "resolve", "resolved 3 hosts")

	msg := <-client.send
	assert.Contains(t, string(msg), "scan-1")
	assert.Contains(t, string(msg), "resolve")
}
