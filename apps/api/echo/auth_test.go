package echoapi

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/kitabiapp/kitabi/core/user"
	testutil "github.com/kitabiapp/kitabi/tests"
)

func TestTokenRoundTrip(t *testing.T) {
	conf := testutil.NewConfig()

	usr := user.User{
		ID:       "5b0d1f90-3a2b-4e5f-8d3c-2f6a9c1b7e44",
		Username: "reader",
		Email:    "reader@test.test",
		Roles:    user.ReaderRoles,
	}

	claims := GetUserClaims(usr, conf)
	if claims.Subject != usr.ID || !claims.IsReader || claims.IsAdmin {
		t.Fatalf("GetUserClaims() = %+v", claims)
	}
	wantExp := time.Now().Add(conf.Server.JWTExpirationDelta).Unix()
	if claims.ExpiresAt < wantExp-5 || claims.ExpiresAt > wantExp+5 {
		t.Errorf("GetUserClaims() ExpiresAt = %d, want ~%d", claims.ExpiresAt, wantExp)
	}

	token, err := GenerateToken(claims, conf)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	parsed := new(Claims)
	if _, err = jwt.ParseWithClaims(token, parsed, func(*jwt.Token) (interface{}, error) {
		return conf.SecretKey, nil
	}); err != nil {
		t.Fatalf("parsing token failed: %v", err)
	}
	if parsed.Subject != usr.ID || parsed.Username != usr.Username || parsed.Email != usr.Email {
		t.Errorf("parsed claims = %+v", parsed)
	}

	// a forged signature does not verify
	if _, err = jwt.ParseWithClaims(token, new(Claims), func(*jwt.Token) (interface{}, error) {
		return []byte("wrong"), nil
	}); err == nil {
		t.Errorf("a token parsed with the wrong key")
	}
}

func TestGetUserClaimsKeepsOrigIssuedAt(t *testing.T) {
	conf := testutil.NewConfig()
	oriat := time.Now().Add(-time.Hour).Unix()

	claims := GetUserClaims(user.User{ID: "u1"}, conf, oriat)
	if claims.OrigIssuedAt != oriat {
		t.Errorf("OrigIssuedAt = %d, want %d", claims.OrigIssuedAt, oriat)
	}
	if claims.IssuedAt == oriat {
		t.Errorf("IssuedAt was not refreshed")
	}
}
