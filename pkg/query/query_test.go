package query

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i5heu/ouroboros-seal/internal/kvstore"
	"github.com/i5heu/ouroboros-seal/pkg/index"
	"github.com/i5heu/ouroboros-seal/pkg/interfaces"
)

type user struct {
	ID   string
	Role string
	Team string
}

func (u user) TableName() string { return "users" }

func (u user) PrimaryKey() ([]byte, error) { return []byte(u.ID), nil }

func (u user) Indexes() ([]index.Entry, error) {
	return []index.Entry{
		{IndexName: "role", Kind: index.NonUnique, SecondaryKey: []byte(u.Role)},
		{IndexName: "team", Kind: index.NonUnique, SecondaryKey: []byte(u.Team)},
	}, nil
}

// seedStore loads three users:
//
//	u1: role=admin team=red
//	u2: role=admin team=blue
//	u3: role=user  team=red
func seedStore(t *testing.T) interfaces.Store {
	t.Helper()
	s, err := kvstore.Open(kvstore.Config{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	m := index.NewMaintainer(nil)
	users := []user{
		{ID: "u1", Role: "admin", Team: "red"},
		{ID: "u2", Role: "admin", Team: "blue"},
		{ID: "u3", Role: "user", Team: "red"},
	}
	err = s.Update(func(tx interfaces.WriteTx) error {
		for _, u := range users {
			if err := tx.Insert(index.RecordTable("users"), []byte(u.ID), []byte("record:"+u.ID)); err != nil {
				return err
			}
			if err := m.Add(tx, u); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return s
}

func evaluate(t *testing.T, s interfaces.Store, policy ExclusionPolicy, q Query) ([]string, error) {
	t.Helper()
	var out []string
	err := s.View(func(tx interfaces.ReadTx) error {
		result, err := NewEvaluator(tx, policy, nil).Evaluate(q)
		if err != nil {
			return err
		}
		for _, k := range result.Keys() {
			out = append(out, string(k))
		}
		return nil
	})
	return out, err
}

func mustEvaluate(t *testing.T, s interfaces.Store, q Query) []string {
	t.Helper()
	out, err := evaluate(t, s, PolicyReturnEmpty, q)
	require.NoError(t, err)
	return out
}

func roleIs(role string) Lookup {
	return Lookup{TableName: "users", Index: "role", Kind: index.NonUnique, SecondaryKey: []byte(role)}
}

func teamIs(team string) Lookup {
	return Lookup{TableName: "users", Index: "team", Kind: index.NonUnique, SecondaryKey: []byte(team)}
}

func TestLookup(t *testing.T) {
	s := seedStore(t)

	assert.Equal(t, []string{"u1", "u2"}, mustEvaluate(t, s, roleIs("admin")))
	assert.Empty(t, mustEvaluate(t, s, roleIs("missing")))
}

func TestMultiLookupUnion(t *testing.T) {
	s := seedStore(t)

	q := MultiLookup{
		TableName:     "users",
		Index:         "role",
		Kind:          index.NonUnique,
		SecondaryKeys: [][]byte{[]byte("admin"), []byte("user"), []byte("missing")},
	}
	assert.Equal(t, []string{"u1", "u2", "u3"}, mustEvaluate(t, s, q))
}

func TestAndIntersects(t *testing.T) {
	s := seedStore(t)

	q := And{Base: roleIs("admin"), Filter: teamIs("red")}
	assert.Equal(t, []string{"u1"}, mustEvaluate(t, s, q))
}

func TestAndMissingFilterKeepsBase(t *testing.T) {
	s := seedStore(t)

	q := And{Base: roleIs("admin"), Filter: teamIs("missing")}
	assert.Equal(t, []string{"u1", "u2"}, mustEvaluate(t, s, q))
}

func TestOrUnions(t *testing.T) {
	s := seedStore(t)

	q := Or{Base: roleIs("user"), Other: teamIs("blue")}
	assert.Equal(t, []string{"u2", "u3"}, mustEvaluate(t, s, q))
}

func TestOrMissingKeepsBase(t *testing.T) {
	s := seedStore(t)

	q := Or{Base: roleIs("admin"), Other: teamIs("missing")}
	assert.Equal(t, []string{"u1", "u2"}, mustEvaluate(t, s, q))
}

func TestXorSymmetricDifference(t *testing.T) {
	s := seedStore(t)

	// admins {u1,u2} xor team red {u1,u3} = {u2,u3}
	q := Xor{Base: roleIs("admin"), Other: teamIs("red")}
	assert.Equal(t, []string{"u2", "u3"}, mustEvaluate(t, s, q))
}

func TestXorMissingKeepsBase(t *testing.T) {
	s := seedStore(t)

	q := Xor{Base: roleIs("admin"), Other: teamIs("missing")}
	assert.Equal(t, []string{"u1", "u2"}, mustEvaluate(t, s, q))
}

func TestWithoutSubtracts(t *testing.T) {
	s := seedStore(t)

	q := Without{Base: roleIs("admin"), Exclude: teamIs("blue")}
	assert.Equal(t, []string{"u1"}, mustEvaluate(t, s, q))
}

func TestWithoutMissingKeepsBase(t *testing.T) {
	s := seedStore(t)

	q := Without{Base: roleIs("admin"), Exclude: teamIs("missing")}
	assert.Equal(t, []string{"u1", "u2"}, mustEvaluate(t, s, q))
}

func TestNotScansPrimary(t *testing.T) {
	s := seedStore(t)

	q := Not{Exclude: roleIs("admin")}
	assert.Equal(t, []string{"u3"}, mustEvaluate(t, s, q))
}

func TestNotMissingEntryPolicies(t *testing.T) {
	s := seedStore(t)
	q := Not{Exclude: roleIs("missing")}

	out, err := evaluate(t, s, PolicyReturnEmpty, q)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = evaluate(t, s, PolicyReturnAll, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, out)

	_, err = evaluate(t, s, PolicyReturnError, q)
	assert.ErrorIs(t, err, ErrMissingExclusion)
}

func TestNotIn(t *testing.T) {
	s := seedStore(t)

	q := NotIn{Exclude: MultiLookup{
		TableName:     "users",
		Index:         "team",
		Kind:          index.NonUnique,
		SecondaryKeys: [][]byte{[]byte("blue")},
	}}
	assert.Equal(t, []string{"u1", "u3"}, mustEvaluate(t, s, q))

	allMissing := NotIn{Exclude: MultiLookup{
		TableName:     "users",
		Index:         "team",
		Kind:          index.NonUnique,
		SecondaryKeys: [][]byte{[]byte("missing")},
	}}
	_, err := evaluate(t, s, PolicyReturnError, allMissing)
	assert.ErrorIs(t, err, ErrMissingExclusion)
}

func TestGroupComposition(t *testing.T) {
	s := seedStore(t)

	// (admins or team blue) without team red = {u2}
	q := Without{
		Base:    Group{Inner: Or{Base: roleIs("admin"), Other: teamIs("blue")}},
		Exclude: teamIs("red"),
	}
	assert.Equal(t, []string{"u2"}, mustEvaluate(t, s, q))
}

func TestCustomPredicate(t *testing.T) {
	s := seedStore(t)

	q := Custom{
		TableName: "users",
		Predicate: func(key, value []byte) (bool, error) {
			return bytes.HasSuffix(value, []byte("u2")), nil
		},
	}
	assert.Equal(t, []string{"u2"}, mustEvaluate(t, s, q))
}

func TestNestedTree(t *testing.T) {
	s := seedStore(t)

	// ((role admin and team red) or team blue) = {u1, u2}
	q := Or{
		Base:  And{Base: roleIs("admin"), Filter: teamIs("red")},
		Other: teamIs("blue"),
	}
	assert.Equal(t, []string{"u1", "u2"}, mustEvaluate(t, s, q))
}
