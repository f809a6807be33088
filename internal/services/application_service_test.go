package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/justsurfingit/Resume-Journal/internal/dtos"
	"github.com/justsurfingit/Resume-Journal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApplicationFixture(t *testing.T) (*resolverFixture, *ApplicationService) {
	f := newResolverFixture(t)
	return f, NewApplicationService(f.jobs.DB, nil)
}

func strPtr(s string) *string { return &s }

func TestSnapshotIndependentOfLaterEdits(t *testing.T) {
	f, apps := newApplicationFixture(t)
	ctx := context.Background()

	app, err := apps.Create(ctx, &dtos.ApplicationRequest{
		Company:  "Acme",
		Position: "Data Engineer",
		JobIDs:   []uint{f.second.ID, f.first.ID},
		PointOrder: map[string]int{
			pointKey(f.second.Points[1]): 1,
			pointKey(f.first.Points[0]):  2,
			pointKey(f.second.Points[0]): 3,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "APPLIED", app.Status)

	// Live edits after the fact: base order flips, an AI overlay appears.
	require.NoError(t, f.jobs.SetDisplayOrder(ctx, f.second.ID, 99))
	require.NoError(t, f.jobs.ReorderPoints(ctx, f.second.ID, []uint{f.second.Points[0].ID, f.second.Points[1].ID}))
	_, err = f.overlays.Replace(ctx, models.ModelOpenAI, ValidatedOrdering{
		JobOrder:    map[uint]int{f.first.ID: 1, f.second.ID: 2},
		PointOrders: map[uint]map[string]PointRank{f.second.ID: {pointKey(f.second.Points[0]): {Order: 1, Score: 1}}},
	})
	require.NoError(t, err)

	jobs, err := apps.GetJobsForApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.second.ID, f.first.ID}, jobIDs(jobs))
	assert.Equal(t, []int{1, 2}, []int{jobs[0].Order, jobs[1].Order})
	assert.Equal(t, []uint{f.second.Points[1].ID, f.second.Points[0].ID}, pointIDs(jobs[0].Points))
	assert.Equal(t, []uint{f.first.Points[0].ID}, pointIDs(jobs[1].Points))
}

func TestSnapshotRejectsOrphanPoint(t *testing.T) {
	f, apps := newApplicationFixture(t)
	ctx := context.Background()

	_, err := apps.Create(ctx, &dtos.ApplicationRequest{
		Company:    "Acme",
		Position:   "Engineer",
		JobIDs:     []uint{f.first.ID},
		PointOrder: map[string]int{pointKey(f.second.Points[0]): 1},
	})
	assert.True(t, IsKind(err, ErrInvalidSnap), "%v", err)

	list, err := apps.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "a rejected snapshot leaves no application behind")
}

func TestSnapshotValidation(t *testing.T) {
	f, apps := newApplicationFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  dtos.ApplicationRequest
		kind ErrorKind
	}{
		{"missing position", dtos.ApplicationRequest{Company: "Acme"}, ErrInvalidInput},
		{"duplicate job", dtos.ApplicationRequest{Company: "Acme", Position: "X", JobIDs: []uint{f.first.ID, f.first.ID}}, ErrInvalidInput},
		{"unknown job", dtos.ApplicationRequest{Company: "Acme", Position: "X", JobIDs: []uint{777}}, ErrUnknownRef},
		{"unknown point", dtos.ApplicationRequest{Company: "Acme", Position: "X", JobIDs: []uint{f.first.ID}, PointOrder: map[string]int{"777": 1}}, ErrUnknownRef},
		{"bad point key", dtos.ApplicationRequest{Company: "Acme", Position: "X", PointOrder: map[string]int{"abc": 1}}, ErrInvalidInput},
		{"aliased point ids", dtos.ApplicationRequest{Company: "Acme", Position: "X", JobIDs: []uint{f.first.ID}, PointOrder: map[string]int{pointKey(f.first.Points[0]): 1, "0" + pointKey(f.first.Points[0]): 2}}, ErrInvalidInput},
		{"padded point id", dtos.ApplicationRequest{Company: "Acme", Position: "X", JobIDs: []uint{f.first.ID}, PointOrder: map[string]int{pointKey(f.first.Points[0]): 1, " " + pointKey(f.first.Points[0]): 2}}, ErrInvalidInput},
		{"bad model", dtos.ApplicationRequest{Company: "Acme", Position: "X", ModelType: "GPT 4!"}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := apps.Create(ctx, &tc.req)
			assert.Equal(t, tc.kind, KindOf(err), "%v", err)
		})
	}
}

func TestApplicationUpdateReplacesSnapshot(t *testing.T) {
	f, apps := newApplicationFixture(t)
	ctx := context.Background()

	app, err := apps.Create(ctx, &dtos.ApplicationRequest{
		Company:    "Acme",
		Position:   "Engineer",
		ModelType:  "OpenAI",
		JobIDs:     []uint{f.first.ID, f.second.ID},
		PointOrder: map[string]int{pointKey(f.first.Points[0]): 1, pointKey(f.second.Points[0]): 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", app.ModelType)

	// Field-only patch keeps the snapshot.
	got, err := apps.Update(ctx, app.ID, &dtos.ApplicationPatchRequest{Status: strPtr("interview"), Notes: strPtr("call on monday")})
	require.NoError(t, err)
	assert.Equal(t, "INTERVIEW", got.Status)
	assert.Equal(t, "call on monday", got.Notes)

	got, err = apps.Update(ctx, app.ID, &dtos.ApplicationPatchRequest{Company: strPtr("  Beta  "), Position: strPtr(" Staff Engineer ")})
	require.NoError(t, err)
	assert.Equal(t, "Beta", got.Company)
	assert.Equal(t, "Staff Engineer", got.Position)
	_, err = apps.Update(ctx, app.ID, &dtos.ApplicationPatchRequest{Company: strPtr("   ")})
	assert.True(t, IsKind(err, ErrInvalidInput))
	assert.Equal(t, []uint{f.first.ID, f.second.ID}, got.JobIDs)
	assert.Len(t, got.PointOrder, 2)

	// Dropping a job drops its points when no point order is given.
	got, err = apps.Update(ctx, app.ID, &dtos.ApplicationPatchRequest{JobIDs: []uint{f.second.ID}})
	require.NoError(t, err)
	assert.Equal(t, []uint{f.second.ID}, got.JobIDs)
	assert.Equal(t, map[string]int{pointKey(f.second.Points[0]): 2}, got.PointOrder)

	// An invalid replacement changes nothing.
	_, err = apps.Update(ctx, app.ID, &dtos.ApplicationPatchRequest{PointOrder: map[string]int{pointKey(f.third.Points[0]): 1}})
	assert.True(t, IsKind(err, ErrInvalidSnap))
	got, err = apps.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{pointKey(f.second.Points[0]): 2}, got.PointOrder)

	_, err = apps.Update(ctx, 4040, &dtos.ApplicationPatchRequest{Notes: strPtr("x")})
	assert.True(t, IsKind(err, ErrNotFound))
}

func TestSnapshotSkipsDeletedEntities(t *testing.T) {
	f, apps := newApplicationFixture(t)
	ctx := context.Background()

	app, err := apps.Create(ctx, &dtos.ApplicationRequest{
		Company:    "Acme",
		Position:   "Engineer",
		JobIDs:     []uint{f.third.ID, f.first.ID},
		PointOrder: map[string]int{pointKey(f.first.Points[1]): 1, pointKey(f.first.Points[0]): 2},
	})
	require.NoError(t, err)

	require.NoError(t, f.jobs.DeleteJob(ctx, f.third.ID))
	require.NoError(t, f.jobs.DeletePoint(ctx, f.first.Points[1].ID))

	jobs, err := apps.GetJobsForApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.first.ID}, jobIDs(jobs))
	assert.Equal(t, []uint{f.first.Points[0].ID}, pointIDs(jobs[0].Points))
}

func TestApplicationDelete(t *testing.T) {
	f, apps := newApplicationFixture(t)
	ctx := context.Background()

	app, err := apps.Create(ctx, &dtos.ApplicationRequest{Company: "Acme", Position: "Engineer", JobIDs: []uint{f.first.ID}})
	require.NoError(t, err)
	require.NoError(t, apps.Delete(ctx, app.ID))

	_, err = apps.Get(ctx, app.ID)
	assert.True(t, IsKind(err, ErrNotFound))
	_, err = apps.GetJobsForApplication(ctx, app.ID)
	assert.True(t, IsKind(err, ErrNotFound))
	assert.True(t, IsKind(apps.Delete(ctx, app.ID), ErrNotFound))

	var rows int64
	require.NoError(t, apps.DB.Model(&models.ApplicationJob{}).Where("application_id = ?", app.ID).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestApplicationListNewestFirst(t *testing.T) {
	_, apps := newApplicationFixture(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := apps.Create(ctx, &dtos.ApplicationRequest{Company: fmt.Sprintf("Company %d", i), Position: "Engineer"})
		require.NoError(t, err)
	}
	list, err := apps.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Company 3", list[0].Company)
}
