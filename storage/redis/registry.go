// Package redisdb keeps the claim registry in Redis so that several generator processes
// can share one student universe.
package redisdb

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/cohortgen/core"
	"github.com/trezcool/cohortgen/core/cohort"
)

func NewClient(conf core.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
}

// claimRegistry stores one SET of student ids per course, plus the SET of known courses.
type claimRegistry struct {
	client    *redis.Client
	namespace string
}

var _ cohort.ClaimRegistry = (*claimRegistry)(nil)

func NewClaimRegistry(client *redis.Client, namespace string) cohort.ClaimRegistry {
	return &claimRegistry{client: client, namespace: namespace}
}

func (reg *claimRegistry) coursesKey() string {
	return fmt.Sprintf("cohortgen:%s:courses", reg.namespace)
}

func (reg *claimRegistry) claimsKey(course string) string {
	return fmt.Sprintf("cohortgen:%s:claimed:%s", reg.namespace, course)
}

func (reg *claimRegistry) Claim(ctx context.Context, course string, studentID int) (bool, error) {
	var added *redis.IntCmd
	_, err := reg.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, reg.coursesKey(), course)
		added = pipe.SAdd(ctx, reg.claimsKey(course), studentID)
		return nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "claiming %d for %q", studentID, course)
	}
	return added.Val() == 1, nil
}

func (reg *claimRegistry) Claimed(ctx context.Context, course string) ([]int, error) {
	members, err := reg.client.SMembers(ctx, reg.claimsKey(course)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "listing claims of %q", course)
	}
	ids := make([]int, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			return nil, errors.Wrapf(err, "claim %q of %q", m, course)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (reg *claimRegistry) Reset(ctx context.Context) error {
	courses, err := reg.client.SMembers(ctx, reg.coursesKey()).Result()
	if err != nil {
		return errors.Wrap(err, "listing claimed courses")
	}
	keys := make([]string, 0, len(courses)+1)
	for _, course := range courses {
		keys = append(keys, reg.claimsKey(course))
	}
	keys = append(keys, reg.coursesKey())
	return errors.Wrap(reg.client.Del(ctx, keys...).Err(), "deleting claims")
}
