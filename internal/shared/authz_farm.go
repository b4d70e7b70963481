package shared

// Farm operation permissions.
const (
	PermFarmsView   = "view_farms"
	PermFarmsManage = "manage_farms"

	PermAnimalsView   = "view_animals"
	PermAnimalsManage = "manage_animals"

	PermAnimalHireView   = "view_animal_hire"
	PermAnimalHireManage = "manage_animal_hire"

	PermMedicalView   = "view_medical_records"
	PermMedicalManage = "manage_medical_records"

	PermSalesView   = "view_sales"
	PermSalesManage = "manage_sales"

	PermExpensesView   = "view_expenses"
	PermExpensesManage = "manage_expenses"
)

// FarmScopes lists all permissions related to farm operations.
func FarmScopes() []string {
	return []string{
		PermFarmsView,
		PermFarmsManage,
		PermAnimalsView,
		PermAnimalsManage,
		PermAnimalHireView,
		PermAnimalHireManage,
		PermMedicalView,
		PermMedicalManage,
		PermSalesView,
		PermSalesManage,
		PermExpensesView,
		PermExpensesManage,
	}
}
