package catalog

import (
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/task"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/task/accounts"
)

// Sections returns every manifest section the apply command understands.
func Sections() []task.Section {
	return []task.Section{
		accounts.Section(),
	}
}
