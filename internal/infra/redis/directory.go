package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"quizhub-live-service/internal/app"
	"quizhub-live-service/internal/domain"
)

// Directory caches display profiles as a hash per user:
//
//	HSET user:{userID}:profile name {name} username {username}
//
// Misses fall through to the wrapped directory (usually Postgres).
type Directory struct {
	client *redis.Client
	source app.ParticipantDirectory
	ttl    time.Duration
}

func NewDirectory(client *redis.Client, source app.ParticipantDirectory, ttl time.Duration) *Directory {
	return &Directory{client: client, source: source, ttl: ttl}
}

func (d *Directory) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	key := d.profileKey(userID)

	if fields, err := d.client.HGetAll(ctx, key).Result(); err == nil && len(fields) > 0 {
		return domain.Profile{Name: fields["name"], Username: fields["username"]}, nil
	}

	profile, err := d.source.GetProfile(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}

	pipe := d.client.Pipeline()
	pipe.HSet(ctx, key, "name", profile.Name, "username", profile.Username)
	if d.ttl > 0 {
		pipe.Expire(ctx, key, d.ttl)
	}
	_, _ = pipe.Exec(ctx)

	return profile, nil
}

func (d *Directory) profileKey(userID string) string {
	return "user:" + userID + ":profile"
}
