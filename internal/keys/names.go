package keys

import "strings"

// The evdev key-code namespace this engine supports. Names follow the
// Linux KEY_*/BTN_* constants; source tokens (lowercased, without the
// KEY_ prefix) map onto these through nameToCode.
const (
	KeyEsc Code = 1 + iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
	KeyMinus
	KeyEqual
	KeyBackspace
	KeyTab
	KeyQ
	KeyW
	KeyE
	KeyR
	KeyT
	KeyY
	KeyU
	KeyI
	KeyO
	KeyP
	KeyLeftBrace
	KeyRightBrace
	KeyEnter
	KeyLeftCtrl
	KeyA
	KeyS
	KeyD
	KeyF
	KeyG
	KeyH
	KeyJ
	KeyK
	KeyL
	KeySemicolon
	KeyApostrophe
	KeyGrave
	KeyLeftShift
	KeyBackslash
	KeyZ
	KeyX
	KeyC
	KeyV
	KeyB
	KeyN
	KeyM
	KeyComma
	KeyDot
	KeySlash
	KeyRightShift
	KeyKPAsterisk
	KeyLeftAlt
	KeySpace
	KeyCapsLock
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyNumLock
	KeyScrollLock
)

const (
	KeyF11         Code = 87
	KeyF12         Code = 88
	KeyRightCtrl   Code = 97
	KeyRightAlt    Code = 100
	KeyHome        Code = 102
	KeyUp          Code = 103
	KeyPageUp      Code = 104
	KeyLeft        Code = 105
	KeyRight       Code = 106
	KeyEnd         Code = 107
	KeyDown        Code = 108
	KeyPageDown    Code = 109
	KeyInsert      Code = 110
	KeyDelete      Code = 111
	KeyLeftMeta    Code = 125
	KeyRightMeta   Code = 126
	BtnLeft        Code = 0x110
	BtnRight       Code = 0x111
	BtnMiddle      Code = 0x112
)

var nameToCode map[string]Code
var codeToName map[Code]string

// charToCode maps a literal printable character (as it would appear
// inside a sequence string, §4.D) to the key it is produced by and
// whether Shift must be held for it.
var charToCode map[rune]struct {
	Code       Code
	NeedsShift bool
}

func init() {
	nameToCode = map[string]Code{
		"esc": KeyEsc, "1": Key1, "2": Key2, "3": Key3, "4": Key4, "5": Key5,
		"6": Key6, "7": Key7, "8": Key8, "9": Key9, "0": Key0,
		"minus": KeyMinus, "equal": KeyEqual, "backspace": KeyBackspace,
		"tab": KeyTab, "q": KeyQ, "w": KeyW, "e": KeyE, "r": KeyR, "t": KeyT,
		"y": KeyY, "u": KeyU, "i": KeyI, "o": KeyO, "p": KeyP,
		"leftbrace": KeyLeftBrace, "rightbrace": KeyRightBrace,
		"enter": KeyEnter, "leftctrl": KeyLeftCtrl, "ctrl": KeyLeftCtrl,
		"a": KeyA, "s": KeyS, "d": KeyD, "f": KeyF, "g": KeyG, "h": KeyH,
		"j": KeyJ, "k": KeyK, "l": KeyL,
		"semicolon": KeySemicolon, "apostrophe": KeyApostrophe, "grave": KeyGrave,
		"leftshift": KeyLeftShift, "shift": KeyLeftShift, "backslash": KeyBackslash,
		"z": KeyZ, "x": KeyX, "c": KeyC, "v": KeyV, "b": KeyB, "n": KeyN, "m": KeyM,
		"comma": KeyComma, "dot": KeyDot, "period": KeyDot, "slash": KeySlash,
		"rightshift": KeyRightShift, "kpasterisk": KeyKPAsterisk,
		"leftalt": KeyLeftAlt, "alt": KeyLeftAlt, "space": KeySpace,
		"capslock": KeyCapsLock,
		"f1": KeyF1, "f2": KeyF2, "f3": KeyF3, "f4": KeyF4, "f5": KeyF5,
		"f6": KeyF6, "f7": KeyF7, "f8": KeyF8, "f9": KeyF9, "f10": KeyF10,
		"f11": KeyF11, "f12": KeyF12,
		"numlock": KeyNumLock, "scrolllock": KeyScrollLock,
		"rightctrl": KeyRightCtrl, "rightalt": KeyRightAlt,
		"home": KeyHome, "up": KeyUp, "pageup": KeyPageUp, "left": KeyLeft,
		"right": KeyRight, "end": KeyEnd, "down": KeyDown, "pagedown": KeyPageDown,
		"insert": KeyInsert, "delete": KeyDelete,
		"leftmeta": KeyLeftMeta, "meta": KeyLeftMeta, "super": KeyLeftMeta,
		"rightmeta": KeyRightMeta,
		"btnleft":   BtnLeft, "btnright": BtnRight, "btnmiddle": BtnMiddle,
	}

	codeToName = make(map[Code]string, len(nameToCode))
	// Prefer the canonical (non-alias) spelling when multiple source
	// names map to the same code, by writing aliases first.
	order := []string{
		"ctrl", "shift", "alt", "meta", "super", "period",
	}
	for _, alias := range order {
		if c, ok := nameToCode[alias]; ok {
			codeToName[c] = alias
		}
	}
	isAlias := make(map[string]bool, len(order))
	for _, alias := range order {
		isAlias[alias] = true
	}
	for n, c := range nameToCode {
		if !isAlias[n] {
			codeToName[c] = n
		}
	}

	charToCode = map[rune]struct {
		Code       Code
		NeedsShift bool
	}{}
	lower := "abcdefghijklmnopqrstuvwxyz"
	for _, r := range lower {
		c := nameToCode[string(r)]
		charToCode[r] = struct {
			Code       Code
			NeedsShift bool
		}{Code: c, NeedsShift: false}
		upper := r - 'a' + 'A'
		charToCode[upper] = struct {
			Code       Code
			NeedsShift bool
		}{Code: c, NeedsShift: true}
	}
	digits := "1234567890"
	for _, r := range digits {
		charToCode[r] = struct {
			Code       Code
			NeedsShift bool
		}{Code: nameToCode[string(r)], NeedsShift: false}
	}
	charToCode[' '] = struct {
		Code       Code
		NeedsShift bool
	}{Code: KeySpace, NeedsShift: false}
}

// CodeByName resolves a source token (e.g. "a", "f1", "enter") to its
// evdev code. Unknown names fail at parse time per spec §3.
func CodeByName(name string) (Code, bool) {
	c, ok := nameToCode[strings.ToLower(name)]
	return c, ok
}

// NameOf is the inverse of CodeByName, used for diagnostics.
func NameOf(c Code) string {
	if n, ok := codeToName[c]; ok {
		return n
	}
	return "key_unknown"
}

// CodeForChar resolves a literal character inside a sequence string to
// the key code that produces it, and whether Shift must be held.
func CodeForChar(r rune) (Code, bool, bool) {
	e, ok := charToCode[r]
	return e.Code, e.NeedsShift, ok
}

// AllKnownCodes lists every Code the name table recognizes, used by
// internal/device's uinput Sink to register UI_SET_KEYBIT capability
// for every key a script could possibly synthesize.
func AllKnownCodes() []Code {
	codes := make([]Code, 0, len(codeToName))
	for c := range codeToName {
		codes = append(codes, c)
	}
	return codes
}
