package ratelimit

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestAllowIsPerKey(t *testing.T) {
    l := New(0.001, 2)

    assert.True(t, l.Allow("QQQ"))
    assert.True(t, l.Allow("QQQ"))
    assert.False(t, l.Allow("QQQ"))
    assert.True(t, l.Allow("TLT"))
}

func TestBurstFloor(t *testing.T) {
    l := New(0.001, 0)
    assert.True(t, l.Allow("A"))
    assert.False(t, l.Allow("A"))
}
