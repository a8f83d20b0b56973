package wire

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hostel-booking/internal/data/entity"
	"hostel-booking/internal/data/memstore"
	"hostel-booking/internal/notify"
	"hostel-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capture struct{ events []notify.Event }

func (c *capture) Notify(event notify.Event) { c.events = append(c.events, event) }

func login(store *memstore.Store, role entity.UserRole) string {
	userID := uuid.New()
	store.AddUser(entity.User{Base: entity.Base{ID: userID}, Username: string(role), Role: role, IsActive: true})
	token := uuid.New()
	store.AddSession(entity.Session{
		BaseSimple: entity.BaseSimple{ID: uuid.New()},
		UserID:     userID,
		Token:      token,
		ExpiresAt:  time.Now().Add(time.Hour),
	})
	return "Bearer " + token.String()
}

func call(t *testing.T, router http.Handler, method, path, auth, body string) (int, json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env.Data
}

func TestRoutes(t *testing.T) {
	store := memstore.New()
	notifier := &capture{}
	app := Wiring(Deps{
		Repo:     store.Repository(),
		Notifier: notifier,
		Config:   &utils.Config{},
		Logger:   zap.NewNop(),
	})
	admin := login(store, entity.RoleAdmin)
	resident := login(store, entity.RoleResident)

	code, _ := call(t, app.Router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, app.Router, http.MethodPost, "/api/admin/rooms", resident, `{"room_number":"1","room_type":"single"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, data := call(t, app.Router, http.MethodPost, "/api/admin/rooms", admin, `{"room_number":"1","room_type":"single"}`)
	require.Equal(t, http.StatusCreated, code)
	var room struct{ ID string }
	require.NoError(t, json.Unmarshal(data, &room))

	code, _ = call(t, app.Router, http.MethodGet, "/api/rooms/"+room.ID, "", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, app.Router, http.MethodPost, "/api/bookings", "", `{"room_id":"`+room.ID+`"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, data = call(t, app.Router, http.MethodPost, "/api/bookings", resident, `{"room_id":"`+room.ID+`"}`)
	require.Equal(t, http.StatusCreated, code)
	var booking struct{ ID string }
	require.NoError(t, json.Unmarshal(data, &booking))

	code, _ = call(t, app.Router, http.MethodPut, "/api/admin/bookings/"+booking.ID+"/status", resident, `{"status":"approved"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, app.Router, http.MethodPut, "/api/admin/bookings/"+booking.ID+"/status", admin, `{"status":"approved"}`)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, booking.ID, notifier.events[0].BookingID)

	code, data = call(t, app.Router, http.MethodGet, "/api/user/profile", resident, "")
	require.Equal(t, http.StatusOK, code)
	var profile struct{ Role string }
	require.NoError(t, json.Unmarshal(data, &profile))
	assert.Equal(t, "resident", profile.Role)

	code, _ = call(t, app.Router, http.MethodGet, "/api/user/bookings", resident, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, app.Router, http.MethodGet, "/api/admin/bookings/", admin, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, app.Router, http.MethodPost, "/api/admin/rooms/"+room.ID+"/recount", admin, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, app.Router, http.MethodPut, "/api/admin/rooms/"+room.ID+"/maintenance", admin, `{"maintenance":true}`)
	assert.Equal(t, http.StatusOK, code)
}
