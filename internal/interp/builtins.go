package interp

import (
	"fmt"
	"unicode/utf8"

	"github.com/kmods/keymods/internal/mapping"
	"github.com/kmods/keymods/internal/value"
)

// installBuiltins populates it.Global with the builtin table of spec
// §6, each bound as a value.Builtin NativeFunc.
func installBuiltins(it *Interpreter) {
	define := func(name string, fn func([]value.Value) (value.Value, error)) {
		it.Global.Define(name, value.Native(&value.NativeFunc{Name: name, Fn: fn}))
	}

	define("print", it.builtinPrint)
	define("map_key", it.builtinMapKey)
	define("sleep", it.builtinSleep)
	define("on_window_change", it.builtinOnWindowChange)
	define("active_window_class", it.builtinActiveWindowClass)
	define("send", it.builtinSend)
	define("number_to_char", builtinNumberToChar)
	define("char_to_number", builtinCharToNumber)
	define("execute", it.builtinExecute)
	define("exit", it.builtinExit)
}

func arityErr(name string, want int, got int) error {
	return &Error{Kind: ArityError, Msg: fmt.Sprintf("%s expects %d argument(s), got %d", name, want, got)}
}

func badArg(name, msg string) error {
	return &Error{Kind: BadArgument, Msg: fmt.Sprintf("%s: %s", name, msg)}
}

func (it *Interpreter) builtinPrint(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityErr("print", 1, len(args))
	}
	fmt.Fprintln(it.Stdout, args[0].String())
	return value.VoidVal(), nil
}

func (it *Interpreter) builtinMapKey(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, arityErr("map_key", 2, len(args))
	}
	if args[1].Kind != value.Function {
		return value.Value{}, badArg("map_key", "second argument must be a function")
	}
	mods, code, err := triggerToChordTemplate(args[0])
	if err != nil {
		return value.Value{}, err
	}
	it.Mappings.InstallShorthand(mods, code, mapping.Action{Kind: mapping.Block, Closure: args[1].ClosureValue()})
	return value.VoidVal(), nil
}

func (it *Interpreter) builtinSleep(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.Number {
		return value.Value{}, badArg("sleep", "expects one numeric argument (milliseconds)")
	}
	it.Host.Sleep(args[0].NumberValue())
	return value.VoidVal(), nil
}

func (it *Interpreter) builtinOnWindowChange(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.Function {
		return value.Value{}, badArg("on_window_change", "expects one function argument")
	}
	it.Host.OnWindowChange(args[0].ClosureValue())
	return value.VoidVal(), nil
}

func (it *Interpreter) builtinActiveWindowClass(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Value{}, arityErr("active_window_class", 0, len(args))
	}
	class, ok := it.Host.ActiveWindowClass()
	if !ok {
		return value.VoidVal(), nil
	}
	return value.Str(class), nil
}

func (it *Interpreter) builtinSend(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.String {
		return value.Value{}, badArg("send", "expects one string argument")
	}
	if err := it.Host.Send(args[0].StringValue()); err != nil {
		return value.Value{}, &Error{Kind: RuntimeAbort, Msg: err.Error()}
	}
	return value.VoidVal(), nil
}

func builtinNumberToChar(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.Number {
		return value.Value{}, badArg("number_to_char", "expects one numeric argument")
	}
	r := rune(args[0].NumberValue())
	if r < 0 || !utf8.ValidRune(r) {
		return value.Value{}, badArg("number_to_char", "value is out of the valid Unicode code point range")
	}
	return value.Str(string(r)), nil
}

func builtinCharToNumber(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.String {
		return value.Value{}, badArg("char_to_number", "expects one string argument")
	}
	s := args[0].StringValue()
	if s == "" {
		return value.Value{}, badArg("char_to_number", "argument must not be empty")
	}
	r, _ := utf8.DecodeRuneInString(s)
	return value.Num(float64(r)), nil
}

func (it *Interpreter) builtinExecute(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, arityErr("execute", 1, 0)
	}
	cmdArgs := make([]string, 0, len(args)-1)
	for i, a := range args {
		if a.Kind != value.String {
			return value.Value{}, badArg("execute", "all arguments must be strings")
		}
		if i == 0 {
			continue
		}
		cmdArgs = append(cmdArgs, a.StringValue())
	}
	out, ok := it.Host.Execute(args[0].StringValue(), cmdArgs)
	if !ok {
		return value.VoidVal(), nil
	}
	return value.Str(out), nil
}

func (it *Interpreter) builtinExit(args []value.Value) (value.Value, error) {
	code := 0
	if len(args) == 1 {
		if args[0].Kind != value.Number {
			return value.Value{}, badArg("exit", "argument must be a number")
		}
		code = int(args[0].NumberValue())
	} else if len(args) > 1 {
		return value.Value{}, arityErr("exit", 1, len(args))
	}
	it.Host.Exit(code)
	return value.VoidVal(), nil
}
