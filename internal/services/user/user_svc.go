package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"chatsyncgo/internal/auth"
)

const uniqueViolation = "23505"

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type UserDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type IUserService interface {
	Register(ctx context.Context, username, password string) (*UserDTO, error)
	// Login validates the credentials and issues a bearer token for the
	// websocket handshake and the REST endpoints.
	Login(ctx context.Context, username, password string) (string, *UserDTO, error)
}

type userService struct {
	db       *sql.DB
	verifier *auth.Verifier
}

func NewUserService(db *sql.DB, verifier *auth.Verifier) IUserService {
	return &userService{db: db, verifier: verifier}
}

func (svc *userService) Register(ctx context.Context, username, password string) (*UserDTO, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	dto := &UserDTO{Username: username}
	err = svc.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2)
		 RETURNING id, created_at`,
		username, string(hash)).Scan(&dto.ID, &dto.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return dto, nil
}

func (svc *userService) Login(ctx context.Context, username, password string) (string, *UserDTO, error) {
	dto := &UserDTO{}
	var hash string
	err := svc.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`,
		username).Scan(&dto.ID, &dto.Username, &hash, &dto.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := svc.verifier.Issue(auth.Identity{ID: dto.ID, Username: dto.Username})
	if err != nil {
		return "", nil, err
	}
	return token, dto, nil
}
