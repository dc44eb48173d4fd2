package entity

// Permission es un permiso atómico que un rol puede conceder.
type Permission string

// Permisos del sistema.
const (
	PermBodegaOrganizar     Permission = "BODEGA_ORGANIZAR"     // crear/editar/eliminar registros de stock
	PermProductoRecibir     Permission = "PRODUCTO_RECIBIR"     // entradas de mercancía
	PermStockActualizar     Permission = "STOCK_ACTUALIZAR"     // registrar movimientos
	PermStockConsultar      Permission = "STOCK_CONSULTAR"      // consultar existencias y movimientos
	PermFaltantesAbastecer  Permission = "FALTANTES_ABASTECER"  // planificar pedidos a proveedor
	PermLogisticaPlanificar Permission = "LOGISTICA_PLANIFICAR" // traslados entre ubicaciones
	PermPiezasDespachar     Permission = "PIEZAS_DESPACHAR"     // salidas hacia producción
	PermReportesGenerar     Permission = "REPORTES_GENERAR"
	PermCatalogoGestionar   Permission = "CATALOGO_GESTIONAR"
	PermUsuariosGestionar   Permission = "USUARIOS_GESTIONAR"
)

var rolePermissions = map[string][]Permission{
	RoleAdmin: {
		PermBodegaOrganizar, PermProductoRecibir, PermStockActualizar, PermStockConsultar,
		PermFaltantesAbastecer, PermLogisticaPlanificar, PermPiezasDespachar,
		PermReportesGenerar, PermCatalogoGestionar, PermUsuariosGestionar,
	},
	RoleBodeguero: {
		PermBodegaOrganizar, PermProductoRecibir, PermStockActualizar, PermStockConsultar,
		PermFaltantesAbastecer, PermLogisticaPlanificar, PermPiezasDespachar,
		PermReportesGenerar,
	},
	RoleVendedor: {
		PermStockConsultar,
	},
}

// HasPermission indica si el rol concede el permiso. Roles desconocidos no conceden nada.
func HasPermission(role string, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsFor devuelve una copia de los permisos del rol.
func PermissionsFor(role string) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
