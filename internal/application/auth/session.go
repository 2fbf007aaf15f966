package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/pkg/jwt"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// AuthAPI login REST y portador del token para las llamadas siguientes.
type AuthAPI interface {
	Login(ctx context.Context, in dto.LoginRequest) (dto.LoginResponse, error)
	SetToken(token string)
}

// Connector conexión del canal pub/sub autenticada con el token de sesión.
type Connector interface {
	Connect(ctx context.Context, token string) error
	Disconnect() error
}

// Syncer lo que la sesión arranca y desmonta del motor de sincronización.
type Syncer interface {
	Start() error
	Stop()
}

// Session sesión activa. El token vive solo en memoria.
type Session struct {
	Token     string
	User      dto.LoginResponse
	ExpiresAt time.Time // cero si el token no trae exp legible
}

// Expired indica si la sesión venció en now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionUseCase login/logout con arranque y desmontaje explícito del canal en tiempo real.
type SessionUseCase struct {
	api  AuthAPI
	conn Connector
	sync Syncer
	log  *logger.Logger

	mu      sync.Mutex
	current *Session
}

// NewSessionUseCase construye el caso de uso.
func NewSessionUseCase(api AuthAPI, conn Connector, syncer Syncer, log *logger.Logger) *SessionUseCase {
	return &SessionUseCase{api: api, conn: conn, sync: syncer, log: log.Component("session")}
}

// Login autentica por REST, guarda el token, conecta el transporte y registra los eventos push.
// Si la conexión falla la sesión no queda abierta.
func (uc *SessionUseCase) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}
	res, err := uc.api.Login(ctx, dto.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if res.Token == "" {
		return nil, fmt.Errorf("login sin token: %w", domain.ErrUnauthorized)
	}
	return uc.open(ctx, res)
}

// Resume abre la sesión con un token ya emitido (API_TOKEN), sin pasar por /auth/login.
func (uc *SessionUseCase) Resume(ctx context.Context, token string) (*Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.open(ctx, dto.LoginResponse{Token: token})
}

func (uc *SessionUseCase) open(ctx context.Context, res dto.LoginResponse) (*Session, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.current != nil {
		uc.closeLocked()
	}

	s := &Session{Token: res.Token, User: res}
	if exp, err := jwt.ExpiresAt(res.Token); err == nil {
		s.ExpiresAt = exp
		if s.Expired(time.Now()) {
			return nil, fmt.Errorf("token vencido: %w", domain.ErrUnauthorized)
		}
	} else {
		uc.log.Debug().Err(err).Msg("token sin expiración legible")
	}

	uc.api.SetToken(s.Token)
	if err := uc.conn.Connect(ctx, s.Token); err != nil {
		uc.api.SetToken("")
		return nil, fmt.Errorf("conectar transporte: %w", err)
	}
	if err := uc.sync.Start(); err != nil {
		_ = uc.conn.Disconnect()
		uc.api.SetToken("")
		return nil, fmt.Errorf("registrar eventos: %w", err)
	}
	uc.current = s
	uc.log.Info().Str("email", res.Email).Time("expira", s.ExpiresAt).Msg("sesión iniciada")
	out := *s
	return &out, nil
}

// Logout retira los handlers push, rechaza las peticiones pendientes, desconecta y olvida el token.
// Sin sesión abierta no hace nada.
func (uc *SessionUseCase) Logout() error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.current == nil {
		return nil
	}
	return uc.closeLocked()
}

func (uc *SessionUseCase) closeLocked() error {
	uc.sync.Stop()
	err := uc.conn.Disconnect()
	uc.api.SetToken("")
	uc.current = nil
	uc.log.Info().Msg("sesión cerrada")
	if err != nil {
		return fmt.Errorf("desconectar transporte: %w", err)
	}
	return nil
}

// Current devuelve la sesión activa.
func (uc *SessionUseCase) Current() (Session, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.current == nil {
		return Session{}, false
	}
	return *uc.current, true
}
