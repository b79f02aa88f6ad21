package annotate

import "github.com/nemesys-lang/nsc/internal/value"

func moduleValue(name string) *value.Value { return value.NewModule(name) }
func funcValue(id int64) *value.Value      { return value.NewFunction(id) }
func classValue(id int64) *value.Value     { return value.NewClass(id) }
