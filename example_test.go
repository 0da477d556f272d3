package optionset_test

import (
	"fmt"

	"github.com/MrEthical07/optionset"
)

var adminPermission = optionset.Define("AdminPermission", "view", "edit", "delete")

// ExampleDefinition_Mask encodes a selection of members into a mask.
func ExampleDefinition_Mask() {
	mask, err := adminPermission.Mask([]string{"View", "Edit"})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(mask, adminPermission.Cast(mask))
	// Output: 3 [view edit]
}

// ExampleDefinition_Subtract shows the operand order of Subtract.
func ExampleDefinition_Subtract() {
	mask, _ := adminPermission.Subtract([]string{"view", "edit"}, 7)
	fmt.Println(adminPermission.Cast(mask))
	// Output: [delete]
}

// ExampleDefinition_Declare builds a definition with explicit values.
func ExampleDefinition_Declare() {
	role := optionset.New("Role")
	_, _ = role.Declare("manager", 1<<0)
	_, _ = role.Declare("staff", 1<<1)
	_, err := role.Declare("owner", 1<<1)
	role.Finalize()

	fmt.Println(role.AllNames())
	fmt.Println(err)
	// Output:
	// [manager staff]
	// value conflict: the value '2' is defined for 'staff'
}
