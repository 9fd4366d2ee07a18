package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRule_Bucket(t *testing.T) {
	r := Rule{Max: 5, Window: 600 * time.Second}

	assert.Equal(t, int64(0), r.Bucket(time.Unix(599, 0)))
	assert.Equal(t, int64(1), r.Bucket(time.Unix(600, 0)))
	assert.Equal(t, int64(2), r.Bucket(time.Unix(1799, 0)))
}

func TestRule_BucketEnd(t *testing.T) {
	r := Rule{Max: 5, Window: 600 * time.Second}

	assert.Equal(t, time.Unix(1200, 0), r.BucketEnd(time.Unix(601, 0)))
	assert.Equal(t, time.Unix(600, 0), r.BucketEnd(time.Unix(0, 0)))
}

func TestRule_SubSecondWindowDoesNotDivideByZero(t *testing.T) {
	r := Rule{Max: 1, Window: time.Millisecond}

	assert.Equal(t, int64(42), r.Bucket(time.Unix(42, 0)))
}
