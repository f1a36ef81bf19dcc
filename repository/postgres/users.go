package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	ticketAuth "github.com/MrEthical07/ticketAuth"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// Querier is the subset of *pgxpool.Pool the repository uses. pgxmock pools
// satisfy it as well.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	selectUserSQL = `SELECT id, nickname, password, salt, head, register_date, last_login_date, login_count
FROM t_user WHERE id = $1`

	insertUserSQL = `INSERT INTO t_user (id, nickname, password, salt, head, register_date, login_count)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	recordLoginSQL = `UPDATE t_user SET last_login_date = $2, login_count = login_count + 1 WHERE id = $1`
)

// Users implements ticketAuth.UserRepository and ticketAuth.UserProvisioner.
type Users struct {
	db Querier
}

// NewUsers returns a repository backed by db.
func NewUsers(db Querier) *Users {
	return &Users{db: db}
}

// FindByIdentifier loads the user whose mobile number is identifier.
func (u *Users) FindByIdentifier(ctx context.Context, identifier string) (ticketAuth.User, error) {
	id, err := parseID(identifier)
	if err != nil {
		return ticketAuth.User{}, ticketAuth.ErrUserNotFound
	}

	var (
		rowID      int64
		nickname   string
		hash       string
		salt       string
		head       *string
		registered *time.Time
		lastLogin  *time.Time
		loginCount int32
	)
	err = u.db.QueryRow(ctx, selectUserSQL, id).Scan(
		&rowID, &nickname, &hash, &salt, &head, &registered, &lastLogin, &loginCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ticketAuth.User{}, ticketAuth.ErrUserNotFound
		}
		return ticketAuth.User{}, oops.
			Code("USER_QUERY_FAILED").
			With("operation", "find user").
			Wrap(err)
	}

	user := ticketAuth.User{
		ID:           strconv.FormatInt(rowID, 10),
		Nickname:     nickname,
		PasswordHash: hash,
		Salt:         salt,
		LoginCount:   uint32(max(loginCount, 0)),
	}
	if head != nil {
		user.Head = *head
	}
	if registered != nil {
		user.RegisterDate = registered.UTC()
	}
	if lastLogin != nil {
		user.LastLoginDate = lastLogin.UTC()
	}
	return user, nil
}

// CreateUser inserts user. A duplicate id returns ticketAuth.ErrUserExists.
func (u *Users) CreateUser(ctx context.Context, user ticketAuth.User) error {
	id, err := parseID(user.ID)
	if err != nil {
		return oops.
			Code("USER_ID_INVALID").
			With("identifier", user.ID).
			Wrap(err)
	}

	var head *string
	if user.Head != "" {
		head = &user.Head
	}
	var registered *time.Time
	if !user.RegisterDate.IsZero() {
		registered = &user.RegisterDate
	}

	_, err = u.db.Exec(ctx, insertUserSQL,
		id, user.Nickname, user.PasswordHash, user.Salt, head, registered, int32(user.LoginCount))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ticketAuth.ErrUserExists
		}
		return oops.
			Code("USER_INSERT_FAILED").
			With("operation", "create user").
			Wrap(err)
	}
	return nil
}

// RecordLogin stamps last_login_date and bumps login_count. It reports
// ticketAuth.ErrUserNotFound when no row matched.
func (u *Users) RecordLogin(ctx context.Context, identifier string, at time.Time) error {
	id, err := parseID(identifier)
	if err != nil {
		return ticketAuth.ErrUserNotFound
	}

	tag, err := u.db.Exec(ctx, recordLoginSQL, id, at)
	if err != nil {
		return oops.
			Code("USER_UPDATE_FAILED").
			With("operation", "record login").
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return ticketAuth.ErrUserNotFound
	}
	return nil
}

func parseID(identifier string) (int64, error) {
	return strconv.ParseInt(identifier, 10, 64)
}
