package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Angalets/olimpollo-backend/internal/apperror"
	"github.com/Angalets/olimpollo-backend/internal/config"
	"github.com/Angalets/olimpollo-backend/internal/events"
	"github.com/Angalets/olimpollo-backend/internal/models"
	"github.com/Angalets/olimpollo-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	sqlBloquearPedido    = "SELECT estado FROM pedidos WHERE id = $1 FOR UPDATE"
	sqlItemsPedido       = "FROM pedido_items WHERE pedido_id = $1"
	sqlLineasReceta      = "FROM menu_productos mp JOIN receta_insumo ri"
	sqlDescontarInsumo   = "UPDATE insumos SET cantidad = cantidad - $1"
	sqlUpdateEstado      = "UPDATE pedidos SET estado = $1 WHERE id = $2"
	sqlPendientesVencido = "SELECT id FROM pedidos WHERE estado = 'Pendiente'"
	sqlListPedidos       = "FROM pedidos p LEFT JOIN pedido_items pi"
)

var (
	columnasItems  = []string{"id", "pedido_id", "menu_producto_id", "nombre_producto", "cantidad", "precio_unitario", "notas", "opcion_ids"}
	columnasLista  = []string{"id", "cliente", "telefono", "canal_venta", "metodo_pago", "estado", "total", "comision", "fecha_creacion", "items"}
	fechaPrueba    = time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	pedidosCfgTest = config.PedidosConfig{TimeZone: "America/Hermosillo", Expiry: time.Hour, ExpiryConsumesStock: true}
)

func newTestPedidoService(t *testing.T, cfg config.PedidosConfig) (*pedidoService, sqlmock.Sqlmock, *events.Hub) {
	t.Helper()
	store, mock := newMockStore(t)
	hub, m := newTestDeps()
	logger := zap.NewNop()

	engine := NewConsumoEngine(
		repository.NewRecetaRepository(),
		repository.NewOpcionRepository(),
		repository.NewInsumoRepository(),
		logger,
	)
	svc := NewPedidoService(store, repository.NewPedidoRepository(cfg.TimeZone), engine, hub, m, cfg, logger).(*pedidoService)
	svc.now = func() time.Time { return fechaPrueba }
	return svc, mock, hub
}

func TestCrearPedidoValidacion(t *testing.T) {
	item := models.PedidoItemRequest{NombreProducto: "Pollo Entero", Cantidad: 1, PrecioUnitario: d("150")}
	negativo := d("-1")

	tests := []struct {
		name string
		req  models.CrearPedidoRequest
	}{
		{"cliente vacío", models.CrearPedidoRequest{Cliente: "   ", Items: []models.PedidoItemRequest{item}}},
		{"sin items", models.CrearPedidoRequest{Cliente: "Ana"}},
		{"cantidad cero", models.CrearPedidoRequest{Cliente: "Ana", Items: []models.PedidoItemRequest{{NombreProducto: "Alitas", Cantidad: 0}}}},
		{"precio negativo", models.CrearPedidoRequest{Cliente: "Ana", Items: []models.PedidoItemRequest{{NombreProducto: "Alitas", Cantidad: 1, PrecioUnitario: negativo}}}},
		{"método desconocido", models.CrearPedidoRequest{Cliente: "Ana", Items: []models.PedidoItemRequest{item}, MetodoPago: "Bitcoin"}},
		{"total ajustado negativo", models.CrearPedidoRequest{Cliente: "Ana", Items: []models.PedidoItemRequest{item}, TotalAjustado: &negativo}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, _ := newTestPedidoService(t, pedidosCfgTest)

			_, err := svc.CrearPedido(context.Background(), &tt.req)

			assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCrearPedidoConTarjeta(t *testing.T) {
	svc, mock, hub := newTestPedidoService(t, pedidosCfgTest)
	eventos, cancel := hub.Subscribe()
	defer cancel()

	mock.ExpectBegin()
	mock.ExpectExec(sqlq("INSERT INTO clientes")).
		WithArgs("6621234567", "Ana", decimalArg("300")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sqlq("INSERT INTO pedidos")).
		WithArgs("Ana", "6621234567", models.CanalOyR, "Tarjeta", "Pendiente", decimalArg("300"), decimalArg("12.53")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fecha_creacion"}).AddRow(41, fechaPrueba))
	mock.ExpectQuery(sqlq("INSERT INTO pedido_items")).
		WithArgs(int64(41), int64(10), "Pollo Entero (BBQ)", 2, decimalArg("150"), "sin cebolla", "{7}", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	resp, err := svc.CrearPedido(context.Background(), &models.CrearPedidoRequest{
		Cliente:    " Ana ",
		Telefono:   "6621234567",
		MetodoPago: "tarjeta de crédito",
		Items: []models.PedidoItemRequest{{
			MenuProductoID: int64Ptr(10),
			NombreProducto: "Pollo Entero (BBQ)",
			Cantidad:       2,
			PrecioUnitario: d("150"),
			Notas:          "sin cebolla",
			OpcionIDs:      []int64{7},
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(41), resp.ID)
	assert.Equal(t, "12.53", resp.Comision)
	assert.Equal(t, "300.00", resp.Total)
	assert.NoError(t, mock.ExpectationsWereMet())

	evento := <-eventos
	assert.Equal(t, events.PedidoCreado, evento.Tipo)
}

func TestCrearPedidoSinTelefonoConTotalAjustado(t *testing.T) {
	svc, mock, _ := newTestPedidoService(t, pedidosCfgTest)
	ajustado := d("100")

	mock.ExpectBegin()
	mock.ExpectQuery(sqlq("INSERT INTO pedidos")).
		WithArgs("Beto", "", models.CanalUber, "Aplicación", "Pendiente", decimalArg("100"), decimalArg("42.13")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fecha_creacion"}).AddRow(42, fechaPrueba))
	mock.ExpectQuery(sqlq("INSERT INTO pedido_items")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	resp, err := svc.CrearPedido(context.Background(), &models.CrearPedidoRequest{
		Cliente:       "Beto",
		CanalVenta:    models.CanalUber,
		MetodoPago:    "App",
		TotalAjustado: &ajustado,
		Items:         []models.PedidoItemRequest{{NombreProducto: "Alitas", Cantidad: 1, PrecioUnitario: d("120")}},
	})

	require.NoError(t, err)
	assert.Equal(t, "42.13", resp.Comision)
	assert.Equal(t, "100.00", resp.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCrearPedidoRollbackSiFallanLineas(t *testing.T) {
	svc, mock, _ := newTestPedidoService(t, pedidosCfgTest)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlq("INSERT INTO pedidos")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fecha_creacion"}).AddRow(43, fechaPrueba))
	mock.ExpectQuery(sqlq("INSERT INTO pedido_items")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.CrearPedido(context.Background(), &models.CrearPedidoRequest{
		Cliente: "Ana",
		Items:   []models.PedidoItemRequest{{NombreProducto: "Alitas", Cantidad: 1, PrecioUnitario: d("120")}},
	})

	assert.True(t, apperror.Is(err, apperror.KindTransaction))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCrearPedidoProductoInexistente(t *testing.T) {
	svc, mock, _ := newTestPedidoService(t, pedidosCfgTest)
	productoID := int64(404)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlq("INSERT INTO pedidos")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fecha_creacion"}).AddRow(44, fechaPrueba))
	mock.ExpectQuery(sqlq("INSERT INTO pedido_items")).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "pedido_items_menu_producto_id_fkey"})
	mock.ExpectRollback()

	_, err := svc.CrearPedido(context.Background(), &models.CrearPedidoRequest{
		Cliente: "Ana",
		Items: []models.PedidoItemRequest{{
			MenuProductoID: &productoID,
			NombreProducto: "Alitas",
			Cantidad:       1,
			PrecioUnitario: d("120"),
		}},
	})

	assert.True(t, apperror.Is(err, apperror.KindNotFound), "%v", err)
	assert.Equal(t, 404, apperror.HTTPStatus(err))
	assert.Contains(t, err.Error(), "404")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectPedidoConReceta(mock sqlmock.Sqlmock, pedidoID int64) {
	mock.ExpectQuery(sqlq(sqlBloquearPedido)).
		WithArgs(pedidoID).
		WillReturnRows(sqlmock.NewRows([]string{"estado"}).AddRow("Pendiente"))
	mock.ExpectQuery(sqlq(sqlItemsPedido)).
		WithArgs(pedidoID).
		WillReturnRows(sqlmock.NewRows(columnasItems).AddRow(1, pedidoID, 10, "Pollo Entero", 3, "150", "", nil))
	mock.ExpectQuery(sqlq(sqlLineasReceta)).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"receta_id", "insumo_id", "cantidad_necesaria", "unidad_medida"}).
			AddRow(100, 5, "2", "pieza"))
}

func TestCambiarEstadoDescuentaInventario(t *testing.T) {
	svc, mock, hub := newTestPedidoService(t, pedidosCfgTest)
	eventos, cancel := hub.Subscribe()
	defer cancel()

	mock.ExpectBegin()
	expectPedidoConReceta(mock, 9)
	mock.ExpectQuery(sqlq(sqlDescontarInsumo)).
		WithArgs(decimalArg("6"), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "cantidad", "stock_minimo"}).AddRow(5, "Pollo", "4", "5"))
	mock.ExpectExec(sqlq(sqlUpdateEstado)).
		WithArgs("Entregado", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.CambiarEstado(context.Background(), 9, "Entregado")

	require.NoError(t, err)
	assert.Equal(t, models.EstadoPendiente, res.EstadoAnterior)
	assert.Equal(t, models.EstadoEntregado, res.Estado)
	require.Len(t, res.Descuentos, 1)
	assert.True(t, d("6").Equal(res.Descuentos[0].Cantidad))
	require.Len(t, res.Alertas, 1)
	assert.Equal(t, models.EstadoReStock, res.Alertas[0].Estado)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, events.PedidoEntregado, (<-eventos).Tipo)
	assert.Equal(t, events.AlertaStock, (<-eventos).Tipo)
}

func TestCambiarEstadoRollbackSiFallaDescuento(t *testing.T) {
	svc, mock, _ := newTestPedidoService(t, pedidosCfgTest)

	mock.ExpectBegin()
	expectPedidoConReceta(mock, 9)
	mock.ExpectQuery(sqlq(sqlDescontarInsumo)).
		WithArgs(decimalArg("6"), int64(5)).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := svc.CambiarEstado(context.Background(), 9, "Entregado")

	assert.True(t, apperror.Is(err, apperror.KindTransaction))
	// el UPDATE de estado nunca se ejecuta: el pedido sigue Pendiente
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCambiarEstadoReglas(t *testing.T) {
	tests := []struct {
		name     string
		actual   string
		nuevo    string
		wantKind apperror.Kind
	}{
		{"mismo estado", "Entregado", "Entregado", apperror.KindUnknown},
		{"pendiente otra vez", "Pendiente", "Pendiente", apperror.KindUnknown},
		{"no se regresa", "Entregado", "Pendiente", apperror.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, _ := newTestPedidoService(t, pedidosCfgTest)

			mock.ExpectBegin()
			mock.ExpectQuery(sqlq(sqlBloquearPedido)).
				WithArgs(int64(3)).
				WillReturnRows(sqlmock.NewRows([]string{"estado"}).AddRow(tt.actual))
			if tt.wantKind == apperror.KindUnknown {
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			res, err := svc.CambiarEstado(context.Background(), 3, tt.nuevo)

			if tt.wantKind == apperror.KindUnknown {
				require.NoError(t, err)
				assert.Empty(t, res.Descuentos)
			} else {
				assert.True(t, apperror.Is(err, tt.wantKind), "got %v", err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCambiarEstadoPedidoInexistente(t *testing.T) {
	svc, mock, _ := newTestPedidoService(t, pedidosCfgTest)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlq(sqlBloquearPedido)).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"estado"}))
	mock.ExpectRollback()

	_, err := svc.CambiarEstado(context.Background(), 404, "Entregado")

	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCambiarEstadoInvalido(t *testing.T) {
	svc, mock, _ := newTestPedidoService(t, pedidosCfgTest)

	_, err := svc.CambiarEstado(context.Background(), 1, "Cancelado")

	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectListado(mock sqlmock.Sqlmock, estado string) {
	items := []byte(`[{"id":1,"pedido_id":9,"menu_producto_id":null,"nombre_producto":"Refresco","cantidad":1,"precio_unitario":25,"notas":"","opcion_ids":null}]`)
	mock.ExpectQuery(sqlq(sqlListPedidos)).
		WillReturnRows(sqlmock.NewRows(columnasLista).
			AddRow(9, "Ana", "", "OyR", "Efectivo", estado, "25", "0", fechaPrueba.Add(-2*time.Hour), items))
}

func TestListarPedidosEsIdempotente(t *testing.T) {
	svc, mock, _ := newTestPedidoService(t, pedidosCfgTest)
	limite := fechaPrueba.Add(-time.Hour)

	// primer listado: el pedido 9 venció y se entrega una sola vez
	mock.ExpectQuery(sqlq(sqlPendientesVencido)).
		WithArgs(limite).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectBegin()
	mock.ExpectQuery(sqlq(sqlBloquearPedido)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"estado"}).AddRow("Pendiente"))
	mock.ExpectQuery(sqlq(sqlItemsPedido)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(columnasItems).AddRow(1, 9, nil, "Refresco", 1, "25", "", nil))
	mock.ExpectExec(sqlq(sqlUpdateEstado)).
		WithArgs("Entregado", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectListado(mock, "Entregado")

	// segundo listado: ya no hay vencidos
	mock.ExpectQuery(sqlq(sqlPendientesVencido)).
		WithArgs(limite).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	expectListado(mock, "Entregado")

	primero, err := svc.ListarPedidos(context.Background(), models.PedidoFilter{})
	require.NoError(t, err)
	segundo, err := svc.ListarPedidos(context.Background(), models.PedidoFilter{})
	require.NoError(t, err)

	require.Len(t, primero, 1)
	assert.Equal(t, primero, segundo)
	assert.Equal(t, models.EstadoEntregado, segundo[0].Estado)
	require.Len(t, segundo[0].Items, 1)
	assert.Equal(t, "Refresco", segundo[0].Items[0].NombreProducto)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListarPedidosToleraFalloDelBarrido(t *testing.T) {
	svc, mock, _ := newTestPedidoService(t, pedidosCfgTest)

	mock.ExpectQuery(sqlq(sqlPendientesVencido)).WillReturnError(errors.New("timeout"))
	expectListado(mock, "Pendiente")

	pedidos, err := svc.ListarPedidos(context.Background(), models.PedidoFilter{})

	require.NoError(t, err)
	assert.Len(t, pedidos, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpirarPendientesModoLegado(t *testing.T) {
	cfg := pedidosCfgTest
	cfg.ExpiryConsumesStock = false
	svc, mock, _ := newTestPedidoService(t, cfg)

	mock.ExpectExec(sqlq("UPDATE pedidos SET estado = 'Entregado'")).
		WithArgs(fechaPrueba.Add(-time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := svc.ExpirarPendientes(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEliminarPedido(t *testing.T) {
	svc, mock, _ := newTestPedidoService(t, pedidosCfgTest)

	mock.ExpectExec(sqlq("DELETE FROM pedidos WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlq("DELETE FROM pedidos WHERE id = $1")).
		WithArgs(int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, svc.EliminarPedido(context.Background(), 5))
	err := svc.EliminarPedido(context.Background(), 6)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCliente(t *testing.T) {
	svc, mock, _ := newTestPedidoService(t, pedidosCfgTest)

	mock.ExpectQuery(sqlq("FROM clientes WHERE telefono = $1")).
		WithArgs("6620000000").
		WillReturnRows(sqlmock.NewRows([]string{"id", "telefono", "nombre", "visitas", "total_gastado", "puntos", "ultima_visita"}))

	_, err := svc.GetCliente(context.Background(), "6620000000")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = svc.GetCliente(context.Background(), " ")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}
