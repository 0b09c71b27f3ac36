package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderKnownTypes(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		data map[string]string
		want string
	}{
		{
			name: "new request",
			typ:  TypeNewRequest,
			data: map[string]string{"title": "Dark mode", "app_name": "Notes"},
			want: "New feature request 'Dark mode' for Notes",
		},
		{
			name: "comment with bid",
			typ:  TypeRequestComment,
			data: map[string]string{"commenter_name": "alice", "title": "Dark mode", "bid_amount": "25.00", "bid_currency": "CAD"},
			want: "alice commented on 'Dark mode' with a bid of 25.00 CAD",
		},
		{
			name: "comment without bid",
			typ:  TypeRequestComment,
			data: map[string]string{"commenter_name": "alice", "title": "Dark mode"},
			want: "alice commented on 'Dark mode'",
		},
		{
			name: "status change",
			typ:  TypeStatusChange,
			data: map[string]string{"title": "Dark mode", "old_status": "requested", "new_status": "in_progress"},
			want: "Feature request 'Dark mode' changed status from requested to in_progress",
		},
		{
			name: "payment received",
			typ:  TypePaymentReceived,
			data: map[string]string{"amount": "66.67", "currency": "CAD", "title": "Dark mode"},
			want: "You received a payment of 66.67 CAD for 'Dark mode'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.typ, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderUnknownTypeFails(t *testing.T) {
	_, err := Render("telepathy", map[string]string{})
	assert.Error(t, err)
}

func TestRenderLink(t *testing.T) {
	assert.Equal(t, "/requests/9", RenderLink(TypeRequestComment, map[string]string{"feature_request_id": "9"}))
	assert.Equal(t, "/messages/4", RenderLink(TypeNewMessage, map[string]string{"thread_id": "4"}))
	assert.Equal(t, "/messages", RenderLink(TypeNewMessage, map[string]string{}))
	assert.Equal(t, "/account/payments", RenderLink(TypePaymentReceived, nil))
	assert.Equal(t, "", RenderLink(TypeStatusChange, map[string]string{}))
}
