package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Angalets/olimpollo-backend/internal/apperror"
	"github.com/Angalets/olimpollo-backend/internal/cache"
	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRecetas map[int64][]models.RecetaInsumo

func (f fakeRecetas) LineasPorProducto(_ context.Context, _ database.Querier, productoID int64) ([]models.RecetaInsumo, error) {
	return f[productoID], nil
}

type fakeOpciones struct {
	porID      map[int64]models.Opcion
	porValor   map[string]models.Opcion
	busquedas  []string
	porIDCalls int
}

func (f *fakeOpciones) PorIDs(_ context.Context, _ database.Querier, ids []int64) ([]models.Opcion, error) {
	f.porIDCalls++
	var res []models.Opcion
	for _, id := range ids {
		if o, ok := f.porID[id]; ok {
			res = append(res, o)
		}
	}
	return res, nil
}

func (f *fakeOpciones) PorValor(_ context.Context, _ database.Querier, valor string) (*models.Opcion, error) {
	f.busquedas = append(f.busquedas, valor)
	if o, ok := f.porValor[models.NormalizarToken(valor)]; ok {
		return &o, nil
	}
	return nil, nil
}

type fakeStock struct {
	insumos map[int64]*models.Insumo
	orden   []int64
	fallaEn int64
}

func (f *fakeStock) Descontar(_ context.Context, _ database.Querier, id int64, cantidad decimal.Decimal) (*models.Insumo, error) {
	if id == f.fallaEn {
		return nil, errors.New("connection reset")
	}
	f.orden = append(f.orden, id)
	insumo, ok := f.insumos[id]
	if !ok {
		return nil, nil
	}
	insumo.Cantidad = insumo.Cantidad.Sub(cantidad)
	insumo.CalcularEstado()
	copia := *insumo
	return &copia, nil
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func int64Ptr(v int64) *int64 {
	return &v
}

const (
	insumoPollo    = int64(1)
	insumoSalsaBBQ = int64(2)
	insumoPapas    = int64(3)
)

func newTestEngine() (*ConsumoEngine, *fakeOpciones, *fakeStock) {
	recetas := fakeRecetas{
		10: {{RecetaID: 100, InsumoID: insumoPollo, CantidadNecesaria: d("2")}},
		11: {
			{RecetaID: 101, InsumoID: insumoPapas, CantidadNecesaria: d("0.25")},
			{RecetaID: 101, InsumoID: insumoPollo, CantidadNecesaria: d("0.5")},
		},
	}
	bbq := models.Opcion{ID: 7, Grupo: "Salsa", Valor: "BBQ", InsumoID: int64Ptr(insumoSalsaBBQ), CantidadInsumo: d("0.05")}
	opciones := &fakeOpciones{
		porID:    map[int64]models.Opcion{7: bbq, 8: {ID: 8, Grupo: "Término", Valor: "Dorado"}},
		porValor: map[string]models.Opcion{"BBQ": bbq},
	}
	stock := &fakeStock{insumos: map[int64]*models.Insumo{
		insumoPollo:    {ID: insumoPollo, Nombre: "Pollo", Cantidad: d("20"), StockMinimo: d("5")},
		insumoSalsaBBQ: {ID: insumoSalsaBBQ, Nombre: "Salsa BBQ", Cantidad: d("1"), StockMinimo: d("0.2")},
		insumoPapas:    {ID: insumoPapas, Nombre: "Papas", Cantidad: d("0.5"), StockMinimo: d("1")},
	}}
	return NewConsumoEngine(recetas, opciones, stock, zap.NewNop()), opciones, stock
}

func TestConsumirRecetaPorCantidad(t *testing.T) {
	engine, _, stock := newTestEngine()

	items := []models.PedidoItem{{ID: 1, MenuProductoID: int64Ptr(10), NombreProducto: "Pollo Entero", Cantidad: 3}}
	descuentos, alertas, err := engine.Consumir(context.Background(), nil, items)

	require.NoError(t, err)
	require.Len(t, descuentos, 1)
	assert.Equal(t, insumoPollo, descuentos[0].InsumoID)
	assert.True(t, d("6").Equal(descuentos[0].Cantidad))
	assert.True(t, d("14").Equal(stock.insumos[insumoPollo].Cantidad))
	assert.Empty(t, alertas)
}

func TestConsumirTokensDelNombre(t *testing.T) {
	engine, opciones, stock := newTestEngine()

	items := []models.PedidoItem{{ID: 1, NombreProducto: "Boneless (BBQ, Extra Ranch)", Cantidad: 2}}
	descuentos, _, err := engine.Consumir(context.Background(), nil, items)

	require.NoError(t, err)
	assert.Equal(t, []string{"BBQ", "Extra Ranch"}, opciones.busquedas)
	require.Len(t, descuentos, 1)
	assert.Equal(t, insumoSalsaBBQ, descuentos[0].InsumoID)
	assert.True(t, d("0.1").Equal(descuentos[0].Cantidad))
	assert.True(t, d("0.9").Equal(stock.insumos[insumoSalsaBBQ].Cantidad))
}

func TestConsumirOpcionesExplicitasNoParseaNombre(t *testing.T) {
	engine, opciones, _ := newTestEngine()

	items := []models.PedidoItem{{
		ID:             1,
		NombreProducto: "Boneless (BBQ, Extra Ranch)",
		Cantidad:       2,
		OpcionIDs:      []int64{7, 8},
	}}
	descuentos, _, err := engine.Consumir(context.Background(), nil, items)

	require.NoError(t, err)
	assert.Empty(t, opciones.busquedas)
	assert.Equal(t, 1, opciones.porIDCalls)
	require.Len(t, descuentos, 1)
	assert.True(t, d("0.1").Equal(descuentos[0].Cantidad))
}

func TestConsumirAgrupaYOrdenaPorInsumo(t *testing.T) {
	engine, _, stock := newTestEngine()

	items := []models.PedidoItem{
		{ID: 1, MenuProductoID: int64Ptr(11), NombreProducto: "Combo (BBQ)", Cantidad: 2},
		{ID: 2, MenuProductoID: int64Ptr(10), NombreProducto: "Pollo Entero", Cantidad: 1},
	}
	descuentos, alertas, err := engine.Consumir(context.Background(), nil, items)

	require.NoError(t, err)
	assert.Equal(t, []int64{insumoPollo, insumoSalsaBBQ, insumoPapas}, stock.orden)
	require.Len(t, descuentos, 3)
	// 2 × 0.5 del combo + 1 × 2 del pollo entero
	assert.True(t, d("3").Equal(descuentos[0].Cantidad))

	require.Len(t, alertas, 1)
	assert.Equal(t, insumoPapas, alertas[0].InsumoID)
	assert.Equal(t, models.EstadoAgotado, alertas[0].Estado)
	assert.True(t, d("0").Equal(alertas[0].Cantidad))
}

func TestConsumirPermiteInventarioNegativo(t *testing.T) {
	engine, _, stock := newTestEngine()

	items := []models.PedidoItem{{ID: 1, MenuProductoID: int64Ptr(10), NombreProducto: "Pollo Entero", Cantidad: 15}}
	_, alertas, err := engine.Consumir(context.Background(), nil, items)

	require.NoError(t, err)
	assert.True(t, d("-10").Equal(stock.insumos[insumoPollo].Cantidad))
	require.Len(t, alertas, 1)
	assert.Equal(t, models.EstadoAgotado, alertas[0].Estado)
}

func TestConsumirInsumoInexistente(t *testing.T) {
	engine, _, stock := newTestEngine()
	delete(stock.insumos, insumoPollo)

	items := []models.PedidoItem{{ID: 1, MenuProductoID: int64Ptr(10), NombreProducto: "Pollo Entero", Cantidad: 1}}
	_, _, err := engine.Consumir(context.Background(), nil, items)

	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestConsumirPropagaErrorDelStore(t *testing.T) {
	engine, _, stock := newTestEngine()
	stock.fallaEn = insumoPollo

	items := []models.PedidoItem{{ID: 1, MenuProductoID: int64Ptr(10), NombreProducto: "Pollo Entero", Cantidad: 1}}
	_, _, err := engine.Consumir(context.Background(), nil, items)

	assert.EqualError(t, err, "connection reset")
}

func TestCachedOpcionIndexEvitaConsultasRepetidas(t *testing.T) {
	_, opciones, _ := newTestEngine()
	c := cache.NewOpcionCache(nil, 10, time.Minute, zap.NewNop())
	index := NewCachedOpcionIndex(opciones, c, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		o, err := index.PorValor(ctx, nil, "bbq")
		require.NoError(t, err)
		require.NotNil(t, o)
		assert.Equal(t, int64(7), o.ID)

		o, err = index.PorValor(ctx, nil, "Extra Ranch")
		require.NoError(t, err)
		assert.Nil(t, o)
	}

	assert.Equal(t, []string{"bbq", "Extra Ranch"}, opciones.busquedas)
}
