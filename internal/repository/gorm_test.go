package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/classgraph/classgraph/internal/classfile"
	"github.com/classgraph/classgraph/internal/graph"
	"github.com/classgraph/classgraph/internal/intern"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo := NewGormGraphRepository(db)
	require.NoError(t, repo.AutoMigrate())

	return db
}

func buildSampleGraph(t *testing.T) *graph.Graph {
	g := graph.New(intern.New(), nil)

	base := classfile.NewRecord("com.example.Base")
	require.NoError(t, g.Link(base))

	child := classfile.NewRecord("com.example.Child")
	child.SuperclassName = "com.example.Base"
	child.ImplementedInterfaces = []string{"com.example.Greeter"}
	child.FieldTypes = map[string]struct{}{"com.example.Helper": {}}
	child.StaticFinalFieldValues["MAX"] = classfile.Constant{Kind: classfile.KindInt32, Int32: 42}
	require.NoError(t, g.Link(child))

	iface := classfile.NewRecord("com.example.Greeter")
	iface.IsInterface = true
	require.NoError(t, g.Link(iface))

	return g
}

func TestGormGraphRepository_SaveAndLoadGraph(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGraphRepository(db)
	ctx := context.Background()

	original := buildSampleGraph(t)

	require.NoError(t, repo.SaveGraph(ctx, "job-1", original))

	loaded, err := repo.LoadGraph(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, original.Len(), loaded.Len())

	child, ok := loaded.GetNode("com.example.Child")
	require.True(t, ok)
	assert.False(t, child.IsInterface)
	assert.True(t, child.ClassfileScanned)

	supers := child.Direct(graph.RelSuperclass)
	require.Len(t, supers, 1)
	assert.Equal(t, "com.example.Base", supers[0].Name)

	ifaces := child.Direct(graph.RelImplementedInterface)
	require.Len(t, ifaces, 1)
	assert.Equal(t, "com.example.Greeter", ifaces[0].Name)

	greeter, ok := loaded.GetNode("com.example.Greeter")
	require.True(t, ok)
	assert.True(t, greeter.IsInterface)
	assert.True(t, greeter.IsInterfaceCategory())
	assert.Len(t, greeter.Direct(graph.RelImplementingClass), 1)

	val, ok := child.FieldValues["MAX"]
	require.True(t, ok)
	assert.Equal(t, int32(42), val.Int32)
}

func TestGormGraphRepository_ListAndDeleteGraph(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGraphRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveGraph(ctx, "job-a", buildSampleGraph(t)))
	require.NoError(t, repo.SaveGraph(ctx, "job-b", buildSampleGraph(t)))

	jobs, err := repo.ListJobs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"job-a", "job-b"}, jobs)

	require.NoError(t, repo.DeleteGraph(ctx, "job-a"))

	jobs, err = repo.ListJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"job-b"}, jobs)

	_, err = repo.LoadGraph(ctx, "job-a")
	assert.Error(t, err)
}

func TestGormGraphRepository_SaveGraph_ReplacesExisting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGraphRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveGraph(ctx, "job-1", buildSampleGraph(t)))

	smaller := graph.New(intern.New(), nil)
	require.NoError(t, smaller.Link(classfile.NewRecord("com.example.Only")))
	require.NoError(t, repo.SaveGraph(ctx, "job-1", smaller))

	loaded, err := repo.LoadGraph(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}
