package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProviderSkillsPromotesFirst(t *testing.T) {
	skills := []ProviderSkill{
		{SkillID: 1, Experience: 2},
		{SkillID: 2, Experience: 5},
	}

	normalized, err := NormalizeProviderSkills(skills)
	require.NoError(t, err)
	require.Len(t, normalized, 2)

	assert.True(t, normalized[0].IsPrimary, "first skill should be promoted when none is primary")
	assert.False(t, normalized[1].IsPrimary)
}

func TestNormalizeProviderSkillsKeepsExplicitPrimary(t *testing.T) {
	skills := []ProviderSkill{
		{SkillID: 1},
		{SkillID: 2, IsPrimary: true},
	}

	normalized, err := NormalizeProviderSkills(skills)
	require.NoError(t, err)

	assert.False(t, normalized[0].IsPrimary)
	assert.True(t, normalized[1].IsPrimary)
}

func TestNormalizeProviderSkillsRejectsMultiplePrimaries(t *testing.T) {
	skills := []ProviderSkill{
		{SkillID: 1, IsPrimary: true},
		{SkillID: 2, IsPrimary: true},
	}

	_, err := NormalizeProviderSkills(skills)
	assert.ErrorIs(t, err, ErrMultiplePrimarySkills)
}

func TestNormalizeProviderSkillsClampsNegatives(t *testing.T) {
	skills := []ProviderSkill{
		{SkillID: 1, Experience: -3, HourlyRate: -50, IsPrimary: true},
	}

	normalized, err := NormalizeProviderSkills(skills)
	require.NoError(t, err)

	assert.Equal(t, float64(0), normalized[0].Experience)
	assert.Equal(t, float64(0), normalized[0].HourlyRate)
	assert.True(t, normalized[0].IsPrimary)
}

func TestNormalizeProviderSkillsEmpty(t *testing.T) {
	normalized, err := NormalizeProviderSkills(nil)
	require.NoError(t, err)
	assert.Empty(t, normalized)
}

func TestNormalizeProviderSkillsDoesNotMutateInput(t *testing.T) {
	skills := []ProviderSkill{
		{SkillID: 1},
		{SkillID: 2},
	}

	_, err := NormalizeProviderSkills(skills)
	require.NoError(t, err)

	assert.False(t, skills[0].IsPrimary, "input slice should be left untouched")
}

func TestUserRoleHelpers(t *testing.T) {
	admin := User{Role: RoleAdmin}
	provider := User{Role: RoleProvider}
	customer := User{Role: RoleCustomer}

	assert.True(t, admin.IsAdmin())
	assert.False(t, admin.IsProvider())

	assert.True(t, provider.IsProvider())
	assert.False(t, provider.IsCustomer())

	assert.True(t, customer.IsCustomer())
	assert.False(t, customer.IsAdmin())
}
