package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearsite/clearsite/pkg/authority"
	"github.com/clearsite/clearsite/pkg/identity"
)

// setupTestStore creates a store backed by a temporary database.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIdentityInsertAndFind(t *testing.T) {
	s := setupTestStore(t)

	rec := &identity.Record{
		ID:            "cred-1",
		ContactHandle: "ops@example.com",
		Tier:          authority.TierAdmin,
		DisplayName:   "Ops",
	}
	require.NoError(t, s.Insert(rec))

	t.Run("BySubjectID", func(t *testing.T) {
		found, err := s.FindBySubjectID("cred-1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "ops@example.com", found.ContactHandle)
		assert.Equal(t, authority.TierAdmin, found.Tier)
		assert.Equal(t, "Ops", found.DisplayName)
	})

	t.Run("ByHandle", func(t *testing.T) {
		found, err := s.FindByHandle("ops@example.com")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "cred-1", found.ID)
	})

	t.Run("AbsentIsNilNotError", func(t *testing.T) {
		found, err := s.FindBySubjectID("missing")
		require.NoError(t, err)
		assert.Nil(t, found)

		found, err = s.FindByHandle("missing@example.com")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestIdentityDuplicateHandle(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.Insert(&identity.Record{
		ID:            "cred-1",
		ContactHandle: "ops@example.com",
		Tier:          authority.TierAdmin,
	}))

	err := s.Insert(&identity.Record{
		ID:            "cred-2",
		ContactHandle: "ops@example.com",
		Tier:          authority.TierSuperAdmin,
	})
	assert.ErrorIs(t, err, ErrDuplicateHandle)
}

// Only admin and super-admin may be persisted; the store rejects the
// rest before the schema check even fires.
func TestIdentityUnstorableTiers(t *testing.T) {
	s := setupTestStore(t)

	for _, tier := range []authority.Tier{authority.TierUser, authority.TierMaster} {
		err := s.Insert(&identity.Record{
			ID:            "cred-x",
			ContactHandle: "x@example.com",
			Tier:          tier,
		})
		assert.Error(t, err, "tier %s must not be storable", tier)
	}

	count, err := s.CountIdentities()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIdentityDelete(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.Insert(&identity.Record{
		ID:            "cred-1",
		ContactHandle: "ops@example.com",
		Tier:          authority.TierAdmin,
	}))

	require.NoError(t, s.Delete("cred-1"))

	found, err := s.FindBySubjectID("cred-1")
	require.NoError(t, err)
	assert.Nil(t, found)

	t.Run("MissingRow", func(t *testing.T) {
		assert.ErrorIs(t, s.Delete("cred-1"), ErrIdentityNotFound)
	})
}

func TestIdentityListAll(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.Insert(&identity.Record{ID: "b", ContactHandle: "b@example.com", Tier: authority.TierAdmin}))
	require.NoError(t, s.Insert(&identity.Record{ID: "a", ContactHandle: "a@example.com", Tier: authority.TierSuperAdmin}))

	recs, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	// Ordered by contact handle.
	assert.Equal(t, "a@example.com", recs[0].ContactHandle)
	assert.Equal(t, "b@example.com", recs[1].ContactHandle)
}

func TestFindSubjectAdapter(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.Insert(&identity.Record{
		ID:            "cred-1",
		ContactHandle: "ops@example.com",
		Tier:          authority.TierSuperAdmin,
	}))

	subject, err := s.FindSubject("cred-1")
	require.NoError(t, err)
	require.NotNil(t, subject)
	assert.Equal(t, authority.TierSuperAdmin, subject.Tier)
	assert.Equal(t, "ops@example.com", subject.ContactHandle)

	subject, err = s.FindSubject("missing")
	require.NoError(t, err)
	assert.Nil(t, subject)
}
