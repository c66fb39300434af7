package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"mapping:view",
		"marks:view-own",
		"plo:view-own",
		"lostfound:view",
		"lostfound:report",
	},
	"teacher": {
		"mapping:view",
		"sheet:view",
		"sheet:edit",
		"plo:view",
		"catalog:view",
		"lostfound:view",
		"lostfound:report",
	},
	"admin": {
		"*", // everything
	},
}
