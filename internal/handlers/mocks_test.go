package handlers

import (
	"context"

	"github.com/Angalets/olimpollo-backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockPedidoService struct {
	mock.Mock
}

func (m *mockPedidoService) CrearPedido(ctx context.Context, req *models.CrearPedidoRequest) (*models.CrearPedidoResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.CrearPedidoResponse)
	return resp, args.Error(1)
}

func (m *mockPedidoService) ListarPedidos(ctx context.Context, filter models.PedidoFilter) ([]*models.Pedido, error) {
	args := m.Called(ctx, filter)
	pedidos, _ := args.Get(0).([]*models.Pedido)
	return pedidos, args.Error(1)
}

func (m *mockPedidoService) CambiarEstado(ctx context.Context, id int64, estado string) (*models.ResultadoTransicion, error) {
	args := m.Called(ctx, id, estado)
	res, _ := args.Get(0).(*models.ResultadoTransicion)
	return res, args.Error(1)
}

func (m *mockPedidoService) EliminarPedido(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPedidoService) ExpirarPendientes(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockPedidoService) GetCliente(ctx context.Context, telefono string) (*models.Cliente, error) {
	args := m.Called(ctx, telefono)
	cliente, _ := args.Get(0).(*models.Cliente)
	return cliente, args.Error(1)
}

type mockCompraService struct {
	mock.Mock
}

func (m *mockCompraService) RegistrarCompra(ctx context.Context, req *models.RegistrarCompraRequest) (*models.RegistrarCompraResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.RegistrarCompraResponse)
	return resp, args.Error(1)
}

type mockCorteService struct {
	mock.Mock
}

func (m *mockCorteService) Preview(ctx context.Context) (*models.PreviewCorte, error) {
	args := m.Called(ctx)
	preview, _ := args.Get(0).(*models.PreviewCorte)
	return preview, args.Error(1)
}

func (m *mockCorteService) RegistrarCorte(ctx context.Context, req *models.CorteRequest) (*models.CorteResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.CorteResponse)
	return resp, args.Error(1)
}

type mockInsumoService struct {
	mock.Mock
}

func (m *mockInsumoService) ListarInsumos(ctx context.Context, filter models.InsumoFilter) ([]*models.Insumo, error) {
	args := m.Called(ctx, filter)
	insumos, _ := args.Get(0).([]*models.Insumo)
	return insumos, args.Error(1)
}

func (m *mockInsumoService) CrearInsumo(ctx context.Context, req *models.CrearInsumoRequest) (*models.Insumo, error) {
	args := m.Called(ctx, req)
	insumo, _ := args.Get(0).(*models.Insumo)
	return insumo, args.Error(1)
}

func (m *mockInsumoService) EliminarInsumo(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockRecetaService struct {
	mock.Mock
}

func (m *mockRecetaService) ReemplazarReceta(ctx context.Context, id int64, req *models.ReemplazarRecetaRequest) (*models.Receta, error) {
	args := m.Called(ctx, id, req)
	receta, _ := args.Get(0).(*models.Receta)
	return receta, args.Error(1)
}

type mockOpcionCache struct {
	mock.Mock
}

func (m *mockOpcionCache) Stats() map[string]interface{} {
	return m.Called().Get(0).(map[string]interface{})
}

func (m *mockOpcionCache) InvalidateAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
