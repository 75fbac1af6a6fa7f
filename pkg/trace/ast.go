package trace

import "github.com/alecthomas/participle/v2/lexer"

// File is a parsed trace file.
//
//	layout "basic"
//	frame 0.5 {
//	    current (0,1) -> (0,4) : 0.5;
//	    voltage 3 : 5.0;
//	    pin "A0" : 1.2;
//	}
type File struct {
	Layout string       `( "layout" @String )?`
	Frames []*FrameDecl `@@*`
}

// FrameDecl is one report, stamped in seconds from the start of the trace.
type FrameDecl struct {
	Pos     lexer.Position
	Time    float64      `"frame" @Number "{"`
	Entries []*EntryDecl `@@* "}"`
}

// EntryDecl is one statement of a frame.
type EntryDecl struct {
	Pos     lexer.Position
	Current *CurrentDecl `(   @@`
	Voltage *VoltageDecl `  | @@`
	Pin     *PinDecl     `  | @@ ) ";"`
}

// CurrentDecl is a thread between two board points.
type CurrentDecl struct {
	From   *PointDecl `"current" @@ Arrow`
	To     *PointDecl `@@ ":"`
	Weight float64    `@Number`
}

// PointDecl is a board point, e.g. (3,-1).
type PointDecl struct {
	X int `"(" @Number ","`
	Y int `@Number ")"`
}

// VoltageDecl is the potential of a line.
type VoltageDecl struct {
	Line  int     `"voltage" @Number ":"`
	Value float64 `@Number`
}

// PinDecl is the reading of an analog pin.
type PinDecl struct {
	Name  string  `"pin" @String ":"`
	Value float64 `@Number`
}
