package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetters(t *testing.T) {
	c := map[string]string{
		"PORT":         "9090",
		"BAD_INT":      "nine",
		"CSRF_ENABLED": "false",
		"TIMEOUT":      "15",
		"ORIGINS":      " https://a.example , ,https://b.example",
		"EMPTY":        "",
	}

	assert.Equal(t, "9090", GetString(c, "PORT", "8080"))
	assert.Equal(t, "fallback", GetString(c, "EMPTY", "fallback"))
	assert.Equal(t, "fallback", GetString(nil, "PORT", "fallback"))

	assert.Equal(t, 9090, GetInt(c, "PORT", 1))
	assert.Equal(t, 1, GetInt(c, "BAD_INT", 1))
	assert.Equal(t, 1, GetInt(c, "MISSING", 1))

	assert.False(t, GetBool(c, "CSRF_ENABLED", true))
	assert.True(t, GetBool(c, "MISSING", true))

	assert.Equal(t, 15*time.Second, GetSeconds(c, "TIMEOUT", time.Minute))
	assert.Equal(t, time.Minute, GetSeconds(c, "MISSING", time.Minute))

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, GetList(c, "ORIGINS"))
	assert.Nil(t, GetList(c, "MISSING"))
}

func TestSplit(t *testing.T) {
	k, v := split("DSN=host=db user=blog")
	assert.Equal(t, "DSN", k)
	assert.Equal(t, "host=db user=blog", v)

	k, v = split("FLAG")
	assert.Equal(t, "FLAG", k)
	assert.Empty(t, v)
}

type fakeStore struct {
	pages [][]types.Parameter
	err   error
	calls int
}

func (f *fakeStore) GetParametersByPath(_ context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[f.calls]
	f.calls++
	out := &ssm.GetParametersByPathOutput{Parameters: page}
	if f.calls < len(f.pages) {
		out.NextToken = aws.String("more")
	}
	return out, nil
}

func TestOverlayParameters(t *testing.T) {
	store := &fakeStore{pages: [][]types.Parameter{
		{
			{Name: aws.String("/blogicum/prod/SECRET_KEY"), Value: aws.String("from-ssm")},
			{Name: aws.String("/blogicum/prod/port"), Value: aws.String("7000")},
		},
		{
			{Name: aws.String("/blogicum/prod/DB_PASSWORD"), Value: aws.String("hunter2")},
		},
	}}
	c := map[string]string{"PORT": "8080"}

	loaded, err := OverlayParameters(context.Background(), store, "/blogicum/prod", c)
	require.NoError(t, err)

	assert.Equal(t, 2, loaded)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, "from-ssm", c["SECRET_KEY"])
	assert.Equal(t, "hunter2", c["DB_PASSWORD"])
	assert.Equal(t, "8080", c["PORT"], "environment wins over parameter store")
}

func TestOverlayParametersError(t *testing.T) {
	store := &fakeStore{err: errors.New("access denied")}
	_, err := OverlayParameters(context.Background(), store, "/blogicum", map[string]string{})
	assert.ErrorContains(t, err, "access denied")
}
