package ticketAuth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrEthical07/ticketAuth/validation"
	"github.com/samber/oops"
)

func TestProvisionUserThenLogin(t *testing.T) {
	users := newFakeUsers()
	engine, _ := newTestEngine(t, DefaultConfig(), users)
	ctx := context.Background()

	user, err := engine.ProvisionUser(ctx, NewUser{Identifier: testMobile, Password: "123456"})
	if err != nil {
		t.Fatalf("ProvisionUser: %v", err)
	}
	if len(user.Salt) != 8 {
		t.Fatalf("generated salt = %q", user.Salt)
	}
	if user.Nickname != testMobile {
		t.Fatalf("nickname = %q, want identifier fallback", user.Nickname)
	}
	if user.RegisterDate.IsZero() {
		t.Fatal("register date not set")
	}

	want, _ := testHasher.Hash("123456", user.Salt)
	if user.PasswordHash != want {
		t.Fatalf("hash = %s, want %s", user.PasswordHash, want)
	}

	if _, err := engine.Login(ctx, loginCreds(testMobile, "123456")); err != nil {
		t.Fatalf("login after provisioning: %v", err)
	}
	if got := engine.MetricsSnapshot().Counters[MetricUserProvisioned]; got != 1 {
		t.Fatalf("provisioned counter = %d", got)
	}
}

func TestProvisionUserMultiByteNicknameCanLogin(t *testing.T) {
	users := newFakeUsers()
	engine, _ := newTestEngine(t, DefaultConfig(), users)
	ctx := context.Background()

	// 100 characters, 300 bytes.
	nickname := strings.Repeat("张", 100)
	if _, err := engine.ProvisionUser(ctx, NewUser{
		Identifier: testMobile,
		Nickname:   nickname,
		Password:   "123456",
		Salt:       testSalt,
	}); err != nil {
		t.Fatalf("ProvisionUser: %v", err)
	}

	ticket, err := engine.Login(ctx, loginCreds(testMobile, "123456"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	id, ok := engine.Resolve(ctx, ticket)
	if !ok {
		t.Fatal("expected ticket to resolve")
	}
	if id.Nickname != nickname {
		t.Fatalf("nickname = %q, want %q", id.Nickname, nickname)
	}
}

func TestProvisionUserRejectsOverlongNickname(t *testing.T) {
	users := newFakeUsers()
	engine, _ := newTestEngine(t, DefaultConfig(), users)

	_, err := engine.ProvisionUser(context.Background(), NewUser{
		Identifier: testMobile,
		Nickname:   strings.Repeat("张", validation.MaxNicknameLength+1),
		Password:   "123456",
	})
	var fe *validation.FieldError
	if !errors.As(err, &fe) || fe.Field != validation.FieldNickname {
		t.Fatalf("err = %v, want nickname FieldError", err)
	}
	if len(users.users) != 0 {
		t.Fatal("nothing must be written for a rejected nickname")
	}
}

func TestProvisionUserKnownSalt(t *testing.T) {
	users := newFakeUsers()
	engine, _ := newTestEngine(t, DefaultConfig(), users)

	user, err := engine.ProvisionUser(context.Background(), NewUser{
		Identifier: testMobile,
		Nickname:   "admin",
		Password:   "123456",
		Salt:       testSalt,
	})
	if err != nil {
		t.Fatalf("ProvisionUser: %v", err)
	}
	if user.PasswordHash != "b7797cce01b4b131b433b6acf4add449" {
		t.Fatalf("hash = %s", user.PasswordHash)
	}
}

func TestProvisionUserShortSalt(t *testing.T) {
	users := newFakeUsers()
	engine, _ := newTestEngine(t, DefaultConfig(), users)

	_, err := engine.ProvisionUser(context.Background(), NewUser{
		Identifier: testMobile,
		Password:   "123456",
		Salt:       "1a2b3",
	})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok || oopsErr.Code() != CodeConfiguration {
		t.Fatalf("expected %s oops code, got %v", CodeConfiguration, err)
	}
	if _, err := users.FindByIdentifier(context.Background(), testMobile); !errors.Is(err, ErrUserNotFound) {
		t.Fatal("rejected user was persisted")
	}
	if got := engine.MetricsSnapshot().Counters[MetricProvisionRejected]; got != 1 {
		t.Fatalf("rejected counter = %d", got)
	}
}

func TestProvisionUserMultiByteShortSalt(t *testing.T) {
	users := newFakeUsers()
	engine, _ := newTestEngine(t, DefaultConfig(), users)

	// Six bytes but three characters.
	_, err := engine.ProvisionUser(context.Background(), NewUser{
		Identifier: testMobile,
		Password:   "123456",
		Salt:       "ééé",
	})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestProvisionUserDuplicate(t *testing.T) {
	users := newFakeUsers()
	users.seed(t, testMobile, "123456", testSalt)
	engine, _ := newTestEngine(t, DefaultConfig(), users)

	_, err := engine.ProvisionUser(context.Background(), NewUser{Identifier: testMobile, Password: "654321"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("err = %v, want ErrUserExists", err)
	}
}

func TestProvisionUserInvalidInput(t *testing.T) {
	users := newFakeUsers()
	engine, _ := newTestEngine(t, DefaultConfig(), users)

	if _, err := engine.ProvisionUser(context.Background(), NewUser{Identifier: "abc", Password: "x"}); !errors.Is(err, validation.ErrInvalid) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if _, err := engine.ProvisionUser(context.Background(), NewUser{Identifier: testMobile}); !errors.Is(err, validation.ErrInvalid) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestProvisionUserWithoutProvisioner(t *testing.T) {
	_, rdb := newTestRedis(t)

	// Wrapping hides CreateUser from the builder's type assertion.
	var repo UserRepository = struct{ UserRepository }{newFakeUsers()}
	engine, err := New().WithRedis(rdb).WithUserRepository(repo).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := engine.ProvisionUser(context.Background(), NewUser{Identifier: testMobile, Password: "123456"}); err == nil {
		t.Fatal("expected error without provisioner")
	}
}
