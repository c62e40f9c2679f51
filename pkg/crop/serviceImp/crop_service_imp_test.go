package serviceImp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irrigo/entities"
	"irrigo/pkg/apperr"
	"irrigo/pkg/crop/service"
	schedSvcImp "irrigo/pkg/schedule/serviceImp"
	"irrigo/pkg/testkit"
)

const owner = "U_FARMER"

func plant(t *testing.T, st *testkit.Stack, req service.PlantRequest) *service.Planted {
	t.Helper()
	out, err := st.Crops.PlantCrop(context.Background(), owner, req)
	require.NoError(t, err)
	return out
}

func TestPlantCropSchedulesFirstTask(t *testing.T) {
	st := testkit.NewStack(t, "2026-06-01")

	out := plant(t, st, service.PlantRequest{CropName: "wheat", City: "Pune"})

	c := out.Crop
	assert.NotZero(t, c.ID)
	assert.Equal(t, "Wheat", c.CropName)
	assert.Equal(t, "2026-06-01", entities.DayKey(c.PlantingDate))
	assert.Equal(t, "2026-09-29", entities.DayKey(c.HarvestDate))
	assert.Equal(t, 7, c.BaseFrequencyDays)
	assert.Equal(t, entities.CropGrowing, c.Status)
	assert.Equal(t, "Cereal", c.CategoryOrDefault())

	require.NotNil(t, out.FirstTask)
	assert.Equal(t, 1, out.FirstTask.GenerationSequence)
	assert.Equal(t, "2026-06-08", entities.DayKey(out.FirstTask.DueDate))
	assert.False(t, out.FirstTask.CatchUp)
	assert.Nil(t, out.FirstTask.WeatherAlert)

	tasks, err := st.TaskRepo.ListByCrop(c.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestPlantCropAliasAndExplicitCategory(t *testing.T) {
	st := testkit.NewStack(t, "2026-06-01")
	cat := "Staple"

	out := plant(t, st, service.PlantRequest{CropName: "Paddy", City: "Cuttack", Category: &cat})

	assert.Equal(t, "Rice", out.Crop.CropName)
	assert.Equal(t, "Staple", out.Crop.CategoryOrDefault())
	require.NotNil(t, out.FirstTask)
	assert.Equal(t, "2026-06-04", entities.DayKey(out.FirstTask.DueDate))
}

func TestPlantUnknownCropUsesDefaults(t *testing.T) {
	st := testkit.NewStack(t, "2026-06-01")

	out := plant(t, st, service.PlantRequest{CropName: "Dragon Fruit", City: "Hanoi"})

	assert.Equal(t, "Dragon Fruit", out.Crop.CropName)
	assert.Equal(t, "2026-08-30", entities.DayKey(out.Crop.HarvestDate))
	assert.Equal(t, 7, out.Crop.BaseFrequencyDays)
	assert.Equal(t, entities.DefaultCategory, out.Crop.CategoryOrDefault())
}

func TestPlantBackdatedCropCatchesUp(t *testing.T) {
	st := testkit.NewStack(t, "2026-06-01")

	out := plant(t, st, service.PlantRequest{CropName: "Wheat", City: "Pune", PlantingDate: "2026-05-20"})

	require.NotNil(t, out.FirstTask)
	assert.Equal(t, "2026-06-01", entities.DayKey(out.FirstTask.DueDate))
	assert.True(t, out.FirstTask.CatchUp)
	assert.Equal(t, schedSvcImp.CatchUpAlert, out.FirstTask.Alert())
	assert.Equal(t, entities.TaskDue, out.FirstTask.State(st.Clock.Today()))

	adj, err := st.TaskRepo.Adjustments(out.FirstTask.ID)
	require.NoError(t, err)
	require.Len(t, adj, 1)
	assert.Equal(t, entities.AdjustOnCreation, adj[0].Source)
	assert.Equal(t, "2026-05-27", entities.DayKey(adj[0].FromDate))
	assert.True(t, adj[0].CatchUp)
}

func TestPlantPastHarvestIsReadyWithoutTasks(t *testing.T) {
	st := testkit.NewStack(t, "2026-06-01")

	out := plant(t, st, service.PlantRequest{CropName: "Wheat", City: "Pune", PlantingDate: "2026-01-01"})

	assert.Equal(t, entities.CropReady, out.Crop.Status)
	assert.Nil(t, out.FirstTask)
	tasks, err := st.TaskRepo.ListByCrop(out.Crop.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestPlantFirstTaskDelayedByRain(t *testing.T) {
	st := testkit.NewStack(t, "2026-06-01")
	st.Weather.Rain("2026-06-08", 25)

	out := plant(t, st, service.PlantRequest{CropName: "Wheat", City: "Pune"})

	require.NotNil(t, out.FirstTask)
	assert.Equal(t, "2026-06-10", entities.DayKey(out.FirstTask.DueDate))
	assert.Equal(t, "Rain expected — delayed 2 day(s)", out.FirstTask.Alert())
}

func TestPlantCropValidation(t *testing.T) {
	st := testkit.NewStack(t, "2026-06-01")
	ctx := context.Background()

	cases := []struct {
		name  string
		owner string
		req   service.PlantRequest
	}{
		{name: "no owner", owner: "", req: service.PlantRequest{CropName: "Wheat", City: "Pune"}},
		{name: "no crop", owner: owner, req: service.PlantRequest{CropName: "  ", City: "Pune"}},
		{name: "no city", owner: owner, req: service.PlantRequest{CropName: "Wheat"}},
		{name: "bad date", owner: owner, req: service.PlantRequest{CropName: "Wheat", City: "Pune", PlantingDate: "01/06/2026"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := st.Crops.PlantCrop(ctx, tc.owner, tc.req)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}

	crops, err := st.CropRepo.ListActive()
	require.NoError(t, err)
	assert.Empty(t, crops)
}

func TestRemoveCropCascades(t *testing.T) {
	st := testkit.NewStack(t, "2026-06-01")
	ctx := context.Background()
	out := plant(t, st, service.PlantRequest{CropName: "Wheat", City: "Pune", PlantingDate: "2026-05-20"})

	n, err := st.Notifier.NotifyDue(ctx, out.Crop.ID, st.Clock.Today())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, st.Crops.RemoveCrop(ctx, owner, out.Crop.ID))

	_, err = st.CropRepo.FindByID(out.Crop.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	tasks, err := st.TaskRepo.ListByCrop(out.Crop.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	adj, err := st.TaskRepo.Adjustments(out.FirstTask.ID)
	require.NoError(t, err)
	assert.Empty(t, adj)

	var notes int64
	require.NoError(t, st.DB.Model(&entities.NotificationRecord{}).Where("crop_id = ?", out.Crop.ID).Count(&notes).Error)
	assert.Zero(t, notes)

	err = st.Crops.RemoveCrop(ctx, owner, out.Crop.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveCropOfAnotherOwner(t *testing.T) {
	st := testkit.NewStack(t, "2026-06-01")
	out := plant(t, st, service.PlantRequest{CropName: "Wheat", City: "Pune"})

	err := st.Crops.RemoveCrop(context.Background(), "U_OTHER", out.Crop.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = st.CropRepo.FindByID(out.Crop.ID)
	assert.NoError(t, err)
}

func TestListCropsReportsProgressAndStatus(t *testing.T) {
	st := testkit.NewStack(t, "2026-06-01")
	plant(t, st, service.PlantRequest{CropName: "Wheat", City: "Pune", PlantingDate: "2026-04-02"})
	plant(t, st, service.PlantRequest{CropName: "Mung Bean", City: "Pune", PlantingDate: "2026-06-01"})

	list, err := st.Crops.ListCrops(owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 50, list[0].Progress)
	assert.Equal(t, entities.CropGrowing, list[0].Status)
	assert.Equal(t, 0, list[1].Progress)

	// harvest of the wheat is 2026-07-31
	st.Clock.Advance(60)
	list, err = st.Crops.ListCrops(owner)
	require.NoError(t, err)
	assert.Equal(t, 100, list[0].Progress)
	assert.Equal(t, entities.CropReady, list[0].Status)

	other, err := st.Crops.ListCrops("U_OTHER")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestGetCropIncludesTasks(t *testing.T) {
	st := testkit.NewStack(t, "2026-06-01")
	out := plant(t, st, service.PlantRequest{CropName: "Wheat", City: "Pune"})

	d, err := st.Crops.GetCrop(owner, out.Crop.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wheat", d.CropName)
	assert.Equal(t, 7, d.FrequencyDays)
	require.Len(t, d.Tasks, 1)

	_, err = st.Crops.GetCrop("U_OTHER", out.Crop.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAdvanceStatusOnHarvest(t *testing.T) {
	st := testkit.NewStack(t, "2026-06-01")
	ctx := context.Background()
	out := plant(t, st, service.PlantRequest{CropName: "Wheat", City: "Pune"})

	ok, err := st.Crops.AdvanceStatus(ctx, out.Crop.ID, st.Clock.Today())
	require.NoError(t, err)
	assert.False(t, ok)

	harvest := out.Crop.HarvestDate
	ok, err = st.Crops.AdvanceStatus(ctx, out.Crop.ID, harvest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.Crops.AdvanceStatus(ctx, out.Crop.ID, harvest)
	require.NoError(t, err)
	assert.False(t, ok)

	active, err := st.Crops.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, entities.CropReady, active[0].Status)
}
