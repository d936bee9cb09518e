package authz

// Nombres de permisos; cada política protegida exige exactamente uno.
const (
	CanCreateEmployee       = "CanCreateEmployee"
	CanModifyEmployee       = "CanModifyEmployee"
	CanRemoveEmployee       = "CanRemoveEmployee"
	CanRevokeEmployeeTokens = "CanRevokeEmployeeTokens"
	CanCreateCustomer       = "CanCreateCustomer"
	CanModifyCustomer       = "CanModifyCustomer"
	CanRecoveryPassword     = "CanRecoveryPassword"
	CanRefreshToken         = "CanRefreshToken"
	CanCreateProduct        = "CanCreateProduct"
	CanEditProduct          = "CanEditProduct"
	CanCreateInvoice        = "CanCreateInvoice"
	CanCancelInvoice        = "CanCancelInvoice"
	CanListCustomers        = "CanListCustomers"
	CanListProducts         = "CanListProducts"
	CanListEmployees        = "CanListEmployees"
	CanListInvoices         = "CanListInvoices"
)

// All todos los permisos conocidos, en orden de siembra.
var All = []string{
	CanCreateEmployee, CanModifyEmployee, CanRemoveEmployee, CanRevokeEmployeeTokens,
	CanCreateCustomer, CanModifyCustomer, CanRecoveryPassword, CanRefreshToken,
	CanCreateProduct, CanEditProduct, CanCreateInvoice, CanCancelInvoice,
	CanListCustomers, CanListProducts, CanListEmployees, CanListInvoices,
}

// BasicPermissions permisos del rol BASIC.
var BasicPermissions = []string{CanRecoveryPassword, CanRefreshToken}
