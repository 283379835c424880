package libtodo_test

import (
	"testing"

	"github.com/mdouchement/todokernel/pkg/libtodo"
	"github.com/stretchr/testify/assert"
)

func TestRecord_AccessibleBy(t *testing.T) {
	r := libtodo.Record{Owner: "alice"}

	assert.True(t, r.AccessibleBy("alice"))
	assert.False(t, r.AccessibleBy("bob"))
	assert.True(t, libtodo.Record{}.AccessibleBy(""))
}

func TestRecord_IsOverdue(t *testing.T) {
	r := libtodo.Record{CreatedTime: 100, DueTime: 200}

	assert.False(t, r.IsOverdue(150))
	assert.True(t, r.IsOverdue(250))

	r.Completed = true
	assert.False(t, r.IsOverdue(250))

	assert.False(t, libtodo.Record{}.IsOverdue(250), "no due time")
}
