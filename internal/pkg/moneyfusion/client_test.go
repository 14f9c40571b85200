package moneyfusion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckout() *CheckoutRequest {
	return NewCheckoutRequest(
		"Abonnement PRO - FixedPronos",
		decimal.NewFromInt(79),
		PersonalInfo{PaymentID: "pay-1", UserID: 5, Plan: "pro"},
		"0700000000",
		"Jean",
		"https://app.test/payment/callback?paymentId=pay-1",
		"https://api.test/api/v1/webhooks/moneyfusion?paymentId=pay-1",
	)
}

func TestNewCheckoutRequest_Wire(t *testing.T) {
	data, err := json.Marshal(newCheckout())
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, float64(79), raw["totalPrice"])
	assert.Equal(t, "0700000000", raw["numeroSend"])
	assert.Equal(t, "Jean", raw["nomclient"])

	articles := raw["article"].([]interface{})
	require.Len(t, articles, 1)
	assert.Equal(t, float64(79), articles[0].(map[string]interface{})["Abonnement PRO - FixedPronos"])

	info := raw["personal_Info"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "pay-1", info["paymentId"])
	assert.Equal(t, float64(5), info["userId"])
	assert.Equal(t, "pro", info["plan"])
}

func TestClient_CreateSession(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var got CheckoutRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			json.NewEncoder(w).Encode(CheckoutResponse{
				Statut:  true,
				URL:     "https://pay.test/checkout/tok_1",
				Token:   "tok_1",
				Message: "Paiement en cours",
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, "", time.Second)
		session, err := client.CreateSession(context.Background(), newCheckout())

		require.NoError(t, err)
		assert.Equal(t, "tok_1", session.Token)
		assert.Equal(t, "https://pay.test/checkout/tok_1", session.URL)
		assert.Equal(t, "pay-1", got.PersonalInfo[0].PaymentID)
	})

	t.Run("statut false", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(CheckoutResponse{Statut: false, Message: "numero invalide"})
		}))
		defer server.Close()

		_, err := NewClient(server.URL, "", time.Second).CreateSession(context.Background(), newCheckout())
		assert.ErrorIs(t, err, ErrRejected)
		assert.Contains(t, err.Error(), "numero invalide")
	})

	t.Run("missing token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(CheckoutResponse{Statut: true, URL: "https://pay.test"})
		}))
		defer server.Close()

		_, err := NewClient(server.URL, "", time.Second).CreateSession(context.Background(), newCheckout())
		assert.ErrorIs(t, err, ErrRejected)
	})

	t.Run("non 2xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
		}))
		defer server.Close()

		_, err := NewClient(server.URL, "", time.Second).CreateSession(context.Background(), newCheckout())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>"))
		}))
		defer server.Close()

		_, err := NewClient(server.URL, "", time.Second).CreateSession(context.Background(), newCheckout())
		assert.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		_, err := NewClient(server.URL, "", 20*time.Millisecond).CreateSession(context.Background(), newCheckout())
		assert.Error(t, err)
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewClient("", "", time.Second).CreateSession(context.Background(), newCheckout())
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestClient_PaymentStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paiementNotif/tok_9" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"statut":true,"data":{"statut":"paid","Montant":79}}`))
	}))
	defer server.Close()

	client := NewClient("", server.URL+"/paiementNotif/", time.Second)

	raw, err := client.PaymentStatus(context.Background(), "tok_9")
	require.NoError(t, err)
	assert.JSONEq(t, `{"statut":true,"data":{"statut":"paid","Montant":79}}`, string(raw))

	_, err = client.PaymentStatus(context.Background(), "unknown")
	assert.Error(t, err)

	_, err = client.PaymentStatus(context.Background(), "")
	assert.Error(t, err)
}
