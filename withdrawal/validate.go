package withdrawal

import (
	"fmt"
	"strings"
)

// Validate checks a withdrawal before anything is written.
// The first violation wins; the returned error is a *ValidationError.
func (w NewWithdrawal) Validate() error {
	if err := w.Employee.Validate(); err != nil {
		return err
	}
	if len(w.Lines) == 0 {
		return invalid("lines", "at least one line is required")
	}
	for i, l := range w.Lines {
		if l.ItemID <= 0 {
			return invalid(fmt.Sprintf("lines[%d].equipment_item_id", i), "must reference a catalog item")
		}
		if l.Quantity < 1 {
			return invalid(fmt.Sprintf("lines[%d].quantity", i), "must be at least 1, got %d", l.Quantity)
		}
	}
	return nil
}

// Validate requires code, name and department.
func (s EmployeeSnapshot) Validate() error {
	switch {
	case strings.TrimSpace(s.Code) == "":
		return invalid("employee_code", "is required")
	case strings.TrimSpace(s.Name) == "":
		return invalid("employee_name", "is required")
	case strings.TrimSpace(s.Department) == "":
		return invalid("department", "is required")
	}
	return nil
}

func (s EmployeeSnapshot) normalized() EmployeeSnapshot {
	out := EmployeeSnapshot{
		Code:       strings.TrimSpace(s.Code),
		Name:       strings.TrimSpace(s.Name),
		Department: strings.TrimSpace(s.Department),
	}
	if s.EmployeeID != nil {
		id := *s.EmployeeID
		out.EmployeeID = &id
	}
	return out
}

// ValidateItem checks catalog input.
func ValidateItem(item EquipmentItem) error {
	switch {
	case strings.TrimSpace(item.Name) == "":
		return invalid("name", "is required")
	case strings.TrimSpace(item.Unit) == "":
		return invalid("unit", "is required")
	case item.StockQuantity < 0:
		return invalid("stock_quantity", "must not be negative, got %d", item.StockQuantity)
	}
	return nil
}

// ValidateEmployee checks directory input.
func ValidateEmployee(emp Employee) error {
	switch {
	case strings.TrimSpace(emp.Code) == "":
		return invalid("employee_code", "is required")
	case strings.TrimSpace(emp.Name) == "":
		return invalid("employee_name", "is required")
	case strings.TrimSpace(emp.Department) == "":
		return invalid("department", "is required")
	}
	return nil
}
