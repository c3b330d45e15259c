package sqlbuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectFullClauseOrder(t *testing.T) {
	b := Select("users").
		Columns("id", "email", "name").
		Where(Group{"id", "=", 1}, Group{"name", "=", "test"}).
		GroupBy("id", "name").
		Having(Group{"id", "=", 2}, Group{"name", "=", "blue"}).
		OrderBy(Order{Col: "id", Dir: "ASC"}, Order{Col: "name", Dir: "DESC"}).
		Limit(1).
		Offset(2)

	want := "SELECT `id`, `email`, `name` FROM users" +
		" WHERE (id = ?) AND (name = ?)" +
		" GROUP BY id, name" +
		" HAVING (id = ?) AND (name = ?)" +
		" ORDER BY id ASC, name DESC" +
		" LIMIT 2, 1"
	assert.Equal(t, want, b.Build())
	assert.Equal(t, []interface{}{1, "test", 2, "blue"}, b.Values())
}

func TestBuildIsIdempotent(t *testing.T) {
	b := Select("posts").
		Columns("posts.id", "posts.title").
		Join("INNER JOIN users ON users.id = posts.user_id").
		Where(Group{"posts.published", 1}).
		OrderBy(Order{Col: "posts.id", Dir: "DESC"}).
		Limit(25)

	first := b.Build()
	firstVals := b.Values()
	assert.Equal(t, first, b.Build())
	assert.Equal(t, firstVals, b.Values())
}

func TestInsert(t *testing.T) {
	b := Insert("users").Set(
		Pair{Col: "name", Val: "test"},
		Pair{Col: "email", Val: "test@test.com"},
	)
	assert.Equal(t, "INSERT INTO users (name, email) VALUES (?, ?)", b.Build())
	assert.Equal(t, []interface{}{"test", "test@test.com"}, b.Values())
}

func TestUpdateSetValuesPrecedeWhere(t *testing.T) {
	b := Update("users").
		Set(Pair{Col: "name", Val: "renamed"}).
		Where(Group{"id", 7})
	assert.Equal(t, "UPDATE users SET name = ? WHERE (id = ?)", b.Build())
	assert.Equal(t, []interface{}{"renamed", 7}, b.Values())
}

func TestDelete(t *testing.T) {
	b := Delete("users").Where(Group{"id", 1})
	assert.Equal(t, "DELETE FROM users WHERE (id = ?)", b.Build())
	assert.Equal(t, []interface{}{1}, b.Values())
}

func TestWhereGroupArity(t *testing.T) {
	cases := []struct {
		name       string
		group      Group
		wantClause string
		wantValues int
	}{
		{"raw fragment", Group{"deleted_at IS NULL"}, "(deleted_at IS NULL)", 0},
		{"implicit equals", Group{"status", "draft"}, "(status = ?)", 1},
		{"explicit operator", Group{"amount", ">=", 100}, "(amount >= ?)", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := Select("t").Where(tc.group)
			sql := b.Build()
			assert.Contains(t, sql, tc.wantClause)
			// Placeholder count must match the value count.
			assert.Equal(t, tc.wantValues, strings.Count(sql, "?"))
			assert.Len(t, b.Values(), tc.wantValues)
		})
	}
}

func TestColumnQuoting(t *testing.T) {
	b := Select("posts").Columns("posts.title", "count(*)", "id")
	sql := b.Build()
	assert.Contains(t, sql, "`posts`.`title`")
	assert.Contains(t, sql, "count(*)")
	assert.Contains(t, sql, "`id`")
}

func TestSelectStar(t *testing.T) {
	require.Equal(t, "SELECT * FROM logs", Select("logs").Build())
}

func TestJoinClausesAppendVerbatim(t *testing.T) {
	b := Select("posts").
		Columns("posts.id").
		Join("LEFT JOIN users ON users.id = posts.user_id", "LEFT JOIN tags ON tags.post_id = posts.id")
	assert.Equal(t,
		"SELECT `posts`.`id` FROM posts LEFT JOIN users ON users.id = posts.user_id LEFT JOIN tags ON tags.post_id = posts.id",
		b.Build())
}

func TestLimitWithoutOffset(t *testing.T) {
	assert.Equal(t, "SELECT * FROM t LIMIT 0, 10", Select("t").Limit(10).Build())
}
