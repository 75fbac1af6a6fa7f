package ui

import (
	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/oligo/gioview/menu"
	gvtheme "github.com/oligo/gioview/theme"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/board"
)

type toolButton struct {
	click widget.Clickable
	icon  *widget.Icon
	desc  string
}

type toolbar struct {
	layoutBtn widget.Clickable

	fit, rotate, flip, labels, open, stop toolButton
}

func newToolbar() toolbar {
	var t toolbar
	set := func(b *toolButton, data []byte, desc string) {
		b.desc = desc
		if icon, err := widget.NewIcon(data); err == nil {
			b.icon = icon
		}
	}
	set(&t.fit, icons.ActionAspectRatio, "Fit board")
	set(&t.rotate, icons.ImageRotateRight, "Rotate")
	set(&t.flip, icons.ImageFlip, "Flip")
	set(&t.labels, icons.ActionLabel, "Toggle labels")
	set(&t.open, icons.FileFolderOpen, "Open trace")
	set(&t.stop, icons.AVStop, "Stop replay")
	return t
}

func (v *Viewer) buildLayoutMenu() *menu.DropdownMenu {
	names := v.board.Layouts()
	opts := make([]menu.MenuOption, 0, len(names))
	for _, name := range names {
		name := name
		opts = append(opts, menu.MenuOption{
			OnClicked: func() error {
				if err := v.board.SetLayout(name); err != nil {
					v.log.Errorf("ui: %v", err)
					return err
				}
				v.refit.Store(true)
				v.setStatus("Layout %s", name)
				return nil
			},
			Layout: func(gtx menu.C, th *gvtheme.Theme) menu.D {
				lbl := material.Body1(th.Theme, name)
				if name == v.board.Options().Layout {
					lbl.Color = th.Palette.ContrastBg
				}
				return layout.Inset{Left: unit.Dp(4), Right: unit.Dp(4)}.Layout(gtx, lbl.Layout)
			},
		})
	}
	drop := menu.NewDropdownMenu([][]menu.MenuOption{opts})
	drop.MaxWidth = unit.Dp(180)
	return drop
}

func (v *Viewer) layoutToolbar(gtx layout.Context) layout.Dimensions {
	t := &v.toolbar
	if t.fit.click.Clicked(gtx) {
		v.fitted = false
	}
	if t.rotate.click.Clicked(gtx) {
		v.camera.Rotate(90)
		v.fitted = false
	}
	if t.flip.click.Clicked(gtx) {
		v.camera.Flip()
	}
	if t.labels.click.Clicked(gtx) {
		v.board.ToggleLayer(board.LayerLabel)
	}
	if t.open.click.Clicked(gtx) {
		v.openTrace()
	}
	if t.stop.click.Clicked(gtx) {
		v.stop()
	}
	if t.layoutBtn.Clicked(gtx) {
		v.layoutMenu.ToggleVisibility(gtx)
	}

	iconButton := func(b *toolButton) layout.FlexChild {
		return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if b.icon == nil {
				return material.Button(v.th.Theme, &b.click, b.desc).Layout(gtx)
			}
			btn := material.IconButton(v.th.Theme, &b.click, b.icon, b.desc)
			btn.Size = unit.Dp(20)
			btn.Inset = layout.UniformInset(unit.Dp(6))
			return layout.Inset{Right: unit.Dp(4)}.Layout(gtx, btn.Layout)
		})
	}

	return layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				btn := material.Button(v.th.Theme, &t.layoutBtn, v.board.Options().Layout)
				dims := layout.Inset{Right: unit.Dp(12)}.Layout(gtx, btn.Layout)
				// Menu after the button so it draws on top.
				v.layoutMenu.Layout(gtx, v.th)
				return dims
			}),
			iconButton(&t.fit),
			iconButton(&t.rotate),
			iconButton(&t.flip),
			iconButton(&t.labels),
			iconButton(&t.open),
			iconButton(&t.stop),
		)
	})
}
