package listing

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/refdata"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/internal/testing/clocktest"
)

type item struct{ Serial string }

type input struct{ Serial string }

type fakeResource struct {
	calls    []backend.Params
	pages    int
	total    int
	listErr  error
	// when set, current_page is reported as requested even past the last page
	echoPage bool
	deleted  []string
	created  []input
	mutErr   error
}

func (f *fakeResource) List(_ context.Context, params backend.Params) (*backend.Page[item], error) {
	f.calls = append(f.calls, params)
	if f.listErr != nil {
		return nil, f.listErr
	}
	requested := ParsePage(params["page"])
	current := requested
	if !f.echoPage && current > f.pages && f.pages > 0 {
		current = f.pages
	}
	items := []item{}
	if requested <= f.pages {
		items = append(items, item{Serial: "SN" + params["page"]})
	}
	return &backend.Page[item]{
		Items:    items,
		PageMeta: backend.PageMeta{Total: f.total, Pages: f.pages, CurrentPage: current, PerPage: 20},
	}, nil
}

func (f *fakeResource) Create(_ context.Context, in input) (*backend.MutationResult, error) {
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	f.created = append(f.created, in)
	return &backend.MutationResult{Message: "ok", NumeroSerie: in.Serial}, nil
}

func (f *fakeResource) Update(_ context.Context, _ string, _ input) (*backend.MutationResult, error) {
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	return &backend.MutationResult{Message: "ok"}, nil
}

func (f *fakeResource) Delete(_ context.Context, id string) (*backend.MutationResult, error) {
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	f.deleted = append(f.deleted, id)
	return &backend.MutationResult{Message: "ok"}, nil
}

type recorder struct{ got []backend.Notification }

func (r *recorder) Notify(_ context.Context, n backend.Notification) { r.got = append(r.got, n) }

type staticFetcher struct{}

func (staticFetcher) All(context.Context) (backend.Configuration, error) {
	return backend.Configuration{
		"fabricantes":       {{ID: 3, Nome: "Emerson"}},
		"tipos_equipamento": {{ID: 9, Nome: "Transmissor"}},
	}, nil
}

var equipmentFilters = []FilterSpec{
	{Name: SearchKey, Label: "Buscar"},
	{Name: "fabricante", Param: "fabricante_id", Category: "fabricantes", Label: "Fabricante"},
	{Name: "tipo", Param: "tipo_equipamento_id", Category: "tipos_equipamento", Label: "Tipo"},
}

func newTestController(res *fakeResource, cfg Config[input]) (*Controller[item, input], *recorder) {
	rec := &recorder{}
	cfg.Filters = equipmentFilters
	cfg.Notifier = rec
	cache := refdata.NewCache(staticFetcher{}, refdata.WithClock(clocktest.New()))
	return New[item, input](res, cache, cfg), rec
}

func TestInitSeedsStateFromQuery(t *testing.T) {
	res := &fakeResource{pages: 5, total: 90}
	c, _ := newTestController(res, Config[input]{})

	c.Init(context.Background(), url.Values{"search": {"bomba"}, "fabricante": {"3"}, "page": {"2"}, "bogus": {"x"}})

	require.Len(t, res.calls, 1)
	assert.Equal(t, backend.Params{
		"page": "2", "per_page": "20", "search": "bomba", "fabricante_id": "3",
	}, res.calls[0])
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, 2, c.Page().CurrentPage)
	assert.Equal(t, 5, c.Page().TotalPages)

	filters := c.Filters()
	require.Len(t, filters, 3)
	assert.Equal(t, []Choice{{Value: "3", Label: "Emerson"}}, filters[1].Options)
	assert.True(t, filters[1].Selected("3"))
}

func TestApplyFiltersResetsPageAndCanonicalizesURL(t *testing.T) {
	res := &fakeResource{pages: 4}
	c, _ := newTestController(res, Config[input]{})
	ctx := context.Background()
	c.Init(ctx, url.Values{"page": {"3"}})

	q := c.SetFilter(ctx, "tipo", "9")
	assert.Equal(t, 1, c.Page().CurrentPage)
	assert.Equal(t, "tipo=9", q.Encode())
	assert.Equal(t, "/equipamentos?tipo=9", c.Location("/equipamentos"))

	q = c.Search(ctx, "  ")
	assert.Equal(t, "tipo=9", q.Encode())

	q = c.GoToPage(ctx, 2)
	assert.Equal(t, "page=2&tipo=9", q.Encode())
	assert.Equal(t, "9", res.calls[len(res.calls)-1]["tipo_equipamento_id"])

	q = c.SetFilter(ctx, "tipo", "")
	assert.Empty(t, q)
	assert.Equal(t, "/equipamentos", c.Location("/equipamentos"))
}

func TestLoadDataEmptyResultFloorsTotalPages(t *testing.T) {
	res := &fakeResource{pages: 0}
	c, _ := newTestController(res, Config[input]{})
	c.Init(context.Background(), url.Values{})

	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, 1, c.Page().TotalPages)
	assert.Equal(t, 1, c.Page().CurrentPage)
	assert.Empty(t, c.Items())
	assert.False(t, c.Pagination().Visible())
}

func TestLoadDataReloadsWhenPagePastEnd(t *testing.T) {
	res := &fakeResource{pages: 2, echoPage: true}
	c, _ := newTestController(res, Config[input]{})
	c.Init(context.Background(), url.Values{"page": {"7"}})

	require.Len(t, res.calls, 2)
	assert.Equal(t, "2", res.calls[1]["page"])
	assert.Equal(t, 2, c.Page().CurrentPage)
	assert.LessOrEqual(t, c.Page().CurrentPage, c.Page().TotalPages)
	assert.Equal(t, []item{{Serial: "SN2"}}, c.Items())
}

func TestLoadDataFailureDegradesToEmpty(t *testing.T) {
	res := &fakeResource{pages: 3}
	c, _ := newTestController(res, Config[input]{})
	ctx := context.Background()
	c.Init(ctx, url.Values{"page": {"2"}})
	require.NotEmpty(t, c.Items())

	res.listErr = &backend.TransportError{Op: "GET /api/equipamentos", Err: errors.New("refused")}
	c.LoadData(ctx)

	assert.Equal(t, StateError, c.State())
	assert.Empty(t, c.Items())
	assert.Equal(t, 1, c.Page().TotalPages)
	assert.Error(t, c.Err())
}

func TestLoadDataIsIdempotent(t *testing.T) {
	res := &fakeResource{pages: 3, total: 41}
	c, _ := newTestController(res, Config[input]{})
	ctx := context.Background()
	c.Init(ctx, url.Values{"search": {"pt"}})

	firstItems, firstPage := c.Items(), c.Page()
	c.LoadData(ctx)
	assert.Equal(t, firstItems, c.Items())
	assert.Equal(t, firstPage, c.Page())
	assert.Equal(t, res.calls[0], res.calls[1])
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	res := &fakeResource{pages: 1}
	c, rec := newTestController(res, Config[input]{Messages: Messages{Deleted: "Equipamento excluído com sucesso"}})
	ctx := context.Background()
	c.Init(ctx, url.Values{})

	err := c.Delete(ctx, "SN123", false)
	assert.ErrorIs(t, err, shared.ErrNotConfirmed)
	assert.Empty(t, res.deleted)

	require.NoError(t, c.Delete(ctx, "SN123", true))
	assert.Equal(t, []string{"SN123"}, res.deleted)
	assert.Len(t, res.calls, 2)
	assert.Equal(t, []backend.Notification{{Kind: backend.KindSuccess, Message: "Equipamento excluído com sucesso"}}, rec.got)
}

func TestDeleteFailureLeavesDataUnchanged(t *testing.T) {
	res := &fakeResource{pages: 1}
	c, rec := newTestController(res, Config[input]{Messages: Messages{Deleted: "x"}})
	ctx := context.Background()
	c.Init(ctx, url.Values{})
	before := c.Items()

	res.mutErr = &backend.APIError{Status: 409, Message: "Equipamento possui pontos vinculados"}
	err := c.Delete(ctx, "SN123", true)
	assert.True(t, backend.IsStatus(err, 409))
	assert.Equal(t, before, c.Items())
	assert.Len(t, res.calls, 1)
	assert.Empty(t, rec.got)
}

func TestCreateValidationBlocksRequest(t *testing.T) {
	res := &fakeResource{pages: 1}
	c, _ := newTestController(res, Config[input]{
		Validate: func(in input) error {
			if in.Serial == "" {
				return &shared.ValidationError{Fields: map[string]string{"numero_serie": "Campo obrigatório"}}
			}
			return nil
		},
		Messages: Messages{Created: "Equipamento criado com sucesso"},
	})
	ctx := context.Background()
	c.Init(ctx, url.Values{})

	_, err := c.Create(ctx, input{})
	assert.NotNil(t, shared.FieldErrors(err))
	assert.Empty(t, res.created)

	out, err := c.Create(ctx, input{Serial: "SN9"})
	require.NoError(t, err)
	assert.Equal(t, "SN9", out.NumeroSerie)
	assert.Len(t, res.calls, 2)
}

func TestTypeDebouncesIntoSingleSearch(t *testing.T) {
	clock := clocktest.New()
	res := &fakeResource{pages: 1}
	c, _ := newTestController(res, Config[input]{Clock: clock, Debounce: 300 * time.Millisecond})
	ctx := context.Background()
	c.Init(ctx, url.Values{})

	var delivered []string
	deliver := func(term string) {
		delivered = append(delivered, term)
		c.Search(ctx, term)
	}
	c.Type("m", deliver)
	clock.Advance(50 * time.Millisecond)
	c.Type("ma", deliver)
	clock.Advance(50 * time.Millisecond)
	c.Type("man", deliver)
	clock.Advance(200 * time.Millisecond)
	c.Type("mano", deliver)
	clock.Advance(300 * time.Millisecond)

	assert.Equal(t, []string{"mano"}, delivered)
	require.Len(t, res.calls, 2)
	assert.Equal(t, "mano", res.calls[1]["search"])

	c.Type("x", deliver)
	c.Close()
	clock.Advance(time.Second)
	assert.Len(t, delivered, 1)
}

func TestMutationOnUninitializedControllerSkipsReload(t *testing.T) {
	res := &fakeResource{pages: 1}
	c, rec := newTestController(res, Config[input]{Messages: Messages{Updated: "Equipamento atualizado com sucesso"}})

	_, err := c.Update(context.Background(), "SN1", input{Serial: "SN1"})
	require.NoError(t, err)
	assert.Empty(t, res.calls)
	assert.Equal(t, StateUninitialized, c.State())
	require.Len(t, rec.got, 1)
	assert.Equal(t, "Equipamento atualizado com sucesso", rec.got[0].Message)
}
