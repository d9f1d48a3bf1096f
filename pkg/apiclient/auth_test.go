package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/aussiebroadwan/garage/pkg/jwtx"
	"github.com/aussiebroadwan/garage/pkg/tokenstore"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	api := newFakeAPI(t)
	client := NewClient("api", api.URL)

	t.Run("stores tokens and display caches", func(t *testing.T) {
		store := tokenstore.NewMemoryStore(tokenstore.Names{})
		session := client.Session(store)

		resp, err := session.Login(context.Background(), "jo@example.com", "hunter2")
		require.NoError(t, err)
		require.Equal(t, jwtx.RoleCustomer, resp.Role)

		tok, ok := store.Get("authToken")
		require.True(t, ok)
		require.Equal(t, "fresh-token", tok)

		rt, ok := store.Get("refreshToken")
		require.True(t, ok)
		require.Equal(t, "rt-1", rt)

		role, ok := store.Get("userRole")
		require.True(t, ok)
		require.Equal(t, "ROLE_CUSTOMER", role)

		raw, ok := store.Get("userInfo")
		require.True(t, ok)
		decoded, err := url.QueryUnescape(raw)
		require.NoError(t, err)
		require.JSONEq(t, `{"firstName":"Jo","lastName":"Bloggs","email":"jo@example.com","role":"ROLE_CUSTOMER"}`, decoded)

		user, ok := session.CachedUser()
		require.True(t, ok)
		require.Equal(t, "Jo", user.FirstName)
	})

	t.Run("bad credentials", func(t *testing.T) {
		store := tokenstore.NewMemoryStore(tokenstore.Names{})
		_, err := client.Session(store).Login(context.Background(), "jo@example.com", "nope")
		require.True(t, IsStatus(err, http.StatusUnauthorized))
		require.Contains(t, err.Error(), "Bad credentials")

		_, ok := store.Get("authToken")
		require.False(t, ok)
	})

	t.Run("logout clears everything", func(t *testing.T) {
		store := tokenstore.NewMemoryStore(tokenstore.Names{})
		session := client.Session(store)
		_, err := session.Login(context.Background(), "jo@example.com", "hunter2")
		require.NoError(t, err)

		session.Logout()
		requireSessionCleared(t, store)
		_, ok := session.CachedUser()
		require.False(t, ok)
	})
}

func TestCachedUserIgnoresGarbage(t *testing.T) {
	store := tokenstore.NewMemoryStore(tokenstore.Names{})
	store.Set("userInfo", "%zz", time.Hour)

	_, ok := NewClient("api", "http://unused").Session(store).CachedUser()
	require.False(t, ok)
}

func TestChatClientUsesItsOwnNames(t *testing.T) {
	api := newFakeAPI(t)
	chat := NewClient("chat", api.URL)
	chat.Names = tokenstore.Names{
		AccessToken:  "chatToken",
		RefreshToken: "chatRefreshToken",
	}

	store := tokenstore.NewMemoryStore(chat.Names)
	store.Set("chatToken", "stale-token", time.Hour)
	store.Set("chatRefreshToken", "rt-1", time.Hour)
	store.Set("authToken", "untouched", time.Hour)

	var out payload
	require.NoError(t, chat.Session(store).GetJSON(context.Background(), "/api/chat", &out))
	require.Equal(t, "fresh-token", out.Token)

	tok, _ := store.Get("chatToken")
	require.Equal(t, "fresh-token", tok)
	other, _ := store.Get("authToken")
	require.Equal(t, "untouched", other)
}
