// Package lib provides optional functions for a [lang.Store] beyond the
// built-in arithmetic: markdown rendering, case mapping, date formatting,
// regular expressions, and JSON or YAML encoding.
//
//	store := lang.NewStore()
//	if _, err := lib.Install(ctx, store); err != nil {
//		return err
//	}
//
// Every function treats null and undefined inputs as absent and returns
// undefined for them.
//
//	@markdown(src)                 // dom.HTML, inserted as nodes
//	@upper(s) @lower(s)
//	@title(s, "de")                // language tag, default English
//	@date(v, "Monday 2 January", "fr_FR")
//	@match(s, /a(b+)/g)            // all matches, or the groups of the first
//	@replace(s, /x/g, "y")         // $1 expands groups
//	@json(v) @yaml(v)
package lib
