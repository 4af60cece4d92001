package ui

import (
	"bytes"
	"testing"

	"github.com/Mohsinsiddi/coffee/internal/connect"
	"github.com/stretchr/testify/assert"
)

func TestToasterPrintsByKind(t *testing.T) {
	var buf bytes.Buffer
	toaster := NewToaster(&buf)

	toaster.Notify(connect.Notification{Kind: connect.Success, Message: "Wallet connected!"})
	toaster.Notify(connect.Notification{Kind: connect.Error, Message: "No accounts found"})

	out := buf.String()
	assert.Contains(t, out, "✓ Wallet connected!")
	assert.Contains(t, out, "✗ No accounts found")
}

func TestToasterReplacesLoadingByID(t *testing.T) {
	var buf bytes.Buffer
	toaster := NewToaster(&buf)

	toaster.Notify(connect.Notification{ID: connect.TxNotificationID, Kind: connect.Loading, Message: "Buying coffee..."})
	toaster.Notify(connect.Notification{ID: connect.TxNotificationID, Kind: connect.Success, Message: "Thank you for the coffee!"})
	toaster.Close()

	out := buf.String()
	assert.Contains(t, out, "Buying coffee...")
	assert.Contains(t, out, "✓ Thank you for the coffee!")
	assert.Empty(t, toaster.spinners)
}

func TestToasterLoadingWithoutIDPrints(t *testing.T) {
	var buf bytes.Buffer
	NewToaster(&buf).Notify(connect.Notification{Kind: connect.Loading, Message: "working"})
	assert.Contains(t, buf.String(), "ℹ working")
}
