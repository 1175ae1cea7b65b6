package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession indicates the request carried no resolvable actor session.
var ErrNoSession = errors.New("no actor session")

// ActorResolver materialises authenticated actors from Redis-backed
// sessions. Sessions are provisioned by the external auth collaborator;
// this service only reads them.
type ActorResolver struct {
	client *redis.Client
	ttl    time.Duration
}

// NewActorResolver constructs an ActorResolver.
func NewActorResolver(client *redis.Client, ttl time.Duration) *ActorResolver {
	return &ActorResolver{client: client, ttl: ttl}
}

const sessionCookieName = "chairline_session"

// Resolve extracts the session token from the request and loads the actor.
// Returns ErrNoSession when the token is absent or unknown.
func (r *ActorResolver) Resolve(ctx context.Context, req *http.Request) (*Actor, error) {
	token := tokenFromRequest(req)
	if token == "" {
		return nil, ErrNoSession
	}

	payload, err := r.client.Get(ctx, r.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("shared: load session: %w", err)
	}

	var actor Actor
	if err := json.Unmarshal(payload, &actor); err != nil {
		return nil, fmt.Errorf("shared: decode session: %w", err)
	}
	if actor.ID == 0 || !actor.Role.Valid() {
		return nil, ErrNoSession
	}

	// Sliding expiry keeps active operators signed in.
	if r.ttl > 0 {
		_ = r.client.Expire(ctx, r.redisKey(token), r.ttl).Err()
	}
	return &actor, nil
}

// Provision stores an actor session under the given token. Used by the
// seed script and by tests; production sessions arrive from the auth
// collaborator writing the same key shape.
func (r *ActorResolver) Provision(ctx context.Context, token string, actor Actor) error {
	if token == "" {
		return errors.New("shared: session token required")
	}
	data, err := json.Marshal(actor)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.redisKey(token), data, r.ttl).Err()
}

// Revoke removes a session.
func (r *ActorResolver) Revoke(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.redisKey(token)).Err()
}

func (r *ActorResolver) redisKey(token string) string {
	return "actor_session:" + token
}

func tokenFromRequest(req *http.Request) string {
	if auth := req.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
	}
	if cookie, err := req.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
