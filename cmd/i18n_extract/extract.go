// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"path/filepath"

	"golang.org/x/tools/go/packages"
)

// key identifies a gettext entry. plural is empty for non-plural entries.
type key struct {
	ctx    string
	id     string
	plural string
}

type ref struct {
	file string
	line int
}

// extractor collects message references from the files of one package.
type extractor struct {
	refs        map[key][]ref
	projectRoot string
	fset        *token.FileSet
	info        *types.Info
	i18nPkgs    map[string]struct{}
}

func newExtractor(
	refs map[key][]ref,
	projectRoot string,
	fset *token.FileSet,
	info *types.Info,
	i18nPkgs map[string]struct{},
) *extractor {
	return &extractor{
		refs:        refs,
		projectRoot: projectRoot,
		fset:        fset,
		info:        info,
		i18nPkgs:    i18nPkgs,
	}
}

func (e *extractor) walk(files []*ast.File) {
	for _, f := range files {
		ast.Inspect(f, func(n ast.Node) bool {
			switch x := n.(type) {
			case *ast.CallExpr:
				e.handleCallExpr(x)
			case *ast.CompositeLit:
				e.handleCompositeLit(x)
			}

			return true
		})
	}
}

// findI18nPkgPaths returns the paths of loaded packages named i18n that
// define a string-based MsgKey type.
func findI18nPkgPaths(pkgs []*packages.Package) map[string]struct{} {
	out := make(map[string]struct{})

	for _, p := range pkgs {
		if p.Name == "i18n" && p.Types != nil && definesMsgKey(p.Types) {
			out[p.PkgPath] = struct{}{}
		}
	}

	return out
}

func definesMsgKey(pkg *types.Package) bool {
	tn, ok := pkg.Scope().Lookup("MsgKey").(*types.TypeName)
	if !ok {
		return false
	}

	basic, ok := tn.Type().Underlying().(*types.Basic)

	return ok && basic.Kind() == types.String
}

// constString evaluates expr to a constant string, including named
// constants and constant concatenations.
func (e *extractor) constString(expr ast.Expr) (string, bool) {
	tv, ok := e.info.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}

	return constant.StringVal(tv.Value), true
}

// isMsgKey reports whether t is the MsgKey type of a known i18n package.
func (e *extractor) isMsgKey(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}

	obj := named.Obj()
	if obj == nil || obj.Pkg() == nil || obj.Name() != "MsgKey" {
		return false
	}

	_, ok = e.i18nPkgs[obj.Pkg().Path()]

	return ok
}

// addConst records expr when it is a constant string.
func (e *extractor) addConst(expr ast.Expr) {
	if msg, ok := e.constString(expr); ok {
		e.addRef(expr.Pos(), msg, "", "")
	}
}

// handleCompositeLit finds constants stored into MsgKey-typed slots of
// map, slice, array and struct literals.
func (e *extractor) handleCompositeLit(x *ast.CompositeLit) {
	tv, ok := e.info.Types[x]
	if !ok || tv.Type == nil {
		return
	}

	t := tv.Type
	if p, ok := t.Underlying().(*types.Pointer); ok {
		t = p.Elem()
	}

	switch u := t.Underlying().(type) {
	case *types.Map:
		keyIsMK, valIsMK := e.isMsgKey(u.Key()), e.isMsgKey(u.Elem())

		for _, elt := range x.Elts {
			kv, ok := elt.(*ast.KeyValueExpr)
			if !ok {
				continue
			}

			if keyIsMK {
				e.addConst(kv.Key)
			}

			if valIsMK {
				e.addConst(kv.Value)
			}
		}

	case *types.Slice:
		e.handleElements(x.Elts, u.Elem())

	case *types.Array:
		e.handleElements(x.Elts, u.Elem())

	case *types.Struct:
		for i, elt := range x.Elts {
			if kv, ok := elt.(*ast.KeyValueExpr); ok {
				id, ok := kv.Key.(*ast.Ident)
				if !ok {
					continue
				}

				if field, ok := e.info.Uses[id].(*types.Var); ok && e.isMsgKey(field.Type()) {
					e.addConst(kv.Value)
				}

				continue
			}

			if i < u.NumFields() && e.isMsgKey(u.Field(i).Type()) {
				e.addConst(elt)
			}
		}
	}
}

func (e *extractor) handleElements(elts []ast.Expr, elem types.Type) {
	if !e.isMsgKey(elem) {
		return
	}

	for _, elt := range elts {
		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			elt = kv.Value
		}

		e.addConst(elt)
	}
}

// handleCallExpr finds MsgKey conversions, Tr-family calls and constants
// passed to MsgKey parameters.
func (e *extractor) handleCallExpr(x *ast.CallExpr) {
	// i18n.MsgKey("...")
	if tv, ok := e.info.Types[x.Fun]; ok && tv.IsType() {
		if len(x.Args) == 1 && e.isMsgKey(tv.Type) {
			e.addConst(x.Args[0])
		}

		return
	}

	if e.handleTrCall(x) {
		return
	}

	sig, ok := e.info.TypeOf(x.Fun).(*types.Signature)
	if !ok || sig.Params().Len() == 0 {
		return
	}

	params := sig.Params()
	last := params.Len() - 1

	for i, arg := range x.Args {
		var pt types.Type

		switch {
		case sig.Variadic() && i >= last:
			// f(xs...) is covered by the composite literal of xs, if any.
			if x.Ellipsis != token.NoPos {
				continue
			}

			pt = params.At(last).Type().(*types.Slice).Elem()
		case i <= last:
			pt = params.At(i).Type()
		default:
			continue
		}

		if e.isMsgKey(pt) {
			e.addConst(arg)
		}
	}
}

// handleTrCall records the arguments of Tr(ctx, msgid), TrC(ctx, msgctxt, msgid)
// and TrN(ctx, singular, plural, n). It reports whether x was such a call.
func (e *extractor) handleTrCall(x *ast.CallExpr) bool {
	var ident *ast.Ident

	switch fun := x.Fun.(type) {
	case *ast.SelectorExpr:
		ident = fun.Sel
	case *ast.Ident:
		ident = fun
	default:
		return false
	}

	fn, ok := e.info.Uses[ident].(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Signature().Recv() != nil {
		return false
	}

	if _, ok := e.i18nPkgs[fn.Pkg().Path()]; !ok {
		return false
	}

	switch fn.Name() {
	case "Tr":
		if len(x.Args) >= 2 {
			e.addConst(x.Args[1])
		}
	case "TrC":
		if len(x.Args) >= 3 {
			ctx, ok1 := e.constString(x.Args[1])
			msg, ok2 := e.constString(x.Args[2])

			if ok1 && ok2 {
				e.addRef(x.Args[2].Pos(), msg, ctx, "")
			}
		}
	case "TrN":
		if len(x.Args) >= 4 {
			singular, ok1 := e.constString(x.Args[1])
			plural, ok2 := e.constString(x.Args[2])

			if ok1 && ok2 {
				e.addRef(x.Args[1].Pos(), singular, "", plural)
			}
		}
	default:
		return false
	}

	return true
}

// addRef records a reference to a message, relative to the project root.
func (e *extractor) addRef(pos token.Pos, msg, ctx, plural string) {
	p := e.fset.Position(pos)

	file := p.Filename
	if rel, err := filepath.Rel(e.projectRoot, file); err == nil {
		file = rel
	}

	k := key{ctx: ctx, id: msg, plural: plural}

	e.refs[k] = append(e.refs[k], ref{file: filepath.ToSlash(file), line: p.Line})
}
