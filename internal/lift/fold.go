package lift

// foldBinop applies the constant-folding/reassociation rules of
// spec.md §4.5 ("applied bottom-up once"): literal-literal arithmetic
// folds, and the identities x+0, x*1, x|0, x&-1 collapse to x. Folding
// happens eagerly here (at lift time, not as a separate tree pass)
// because the symbolic per-block cache already has both operands at
// hand; a later whole-method pass would need to re-derive the same
// bindings.
func foldBinop(stem string, l, r Expr) Expr {
	if v, ok := foldIdentity(stem, l, r); ok {
		return v
	}
	lc, lok := l.(Const)
	rc, rok := r.(Const)
	if lok && rok {
		if v, ok := foldLiterals(stem, lc, rc); ok {
			return v
		}
	}
	return BinOp{Op: stem, L: l, R: r}
}

func foldIdentity(stem string, l, r Expr) (Expr, bool) {
	rc, rok := r.(Const)
	if !rok {
		return nil, false
	}
	n, isInt := asInt(rc)
	if !isInt {
		return nil, false
	}
	switch {
	case (stem == "add-int" || stem == "add-long" || stem == "add-float" || stem == "add-double") && n == 0:
		return l, true
	case (stem == "sub-int" || stem == "sub-long") && n == 0:
		return l, true
	case (stem == "mul-int" || stem == "mul-long" || stem == "mul-float" || stem == "mul-double") && n == 1:
		return l, true
	case stem == "or-int" && n == 0:
		return l, true
	case stem == "or-long" && n == 0:
		return l, true
	case stem == "and-int" && n == -1:
		return l, true
	case stem == "and-long" && n == -1:
		return l, true
	}
	return nil, false
}

func asInt(c Const) (int64, bool) {
	switch v := c.Value.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	}
	return 0, false
}

func foldLiterals(stem string, l, r Const) (Expr, bool) {
	a, aok := asInt(l)
	b, bok := asInt(r)
	if !aok || !bok {
		return nil, false
	}
	var v int64
	switch stem {
	case "add-int", "add-long":
		v = a + b
	case "sub-int", "sub-long":
		v = a - b
	case "mul-int", "mul-long":
		v = a * b
	case "and-int", "and-long":
		v = a & b
	case "or-int", "or-long":
		v = a | b
	case "xor-int", "xor-long":
		v = a ^ b
	case "div-int", "div-long":
		if b == 0 {
			return nil, false // preserve the runtime ArithmeticException, don't fold
		}
		v = a / b
	case "rem-int", "rem-long":
		if b == 0 {
			return nil, false
		}
		v = a % b
	default:
		return nil, false
	}
	return Const{Value: v, Type: l.Type}, true
}
