package lang

// Query sources use the tree-sitter Query API's S-expression syntax
// (pattern (field: (child) @capture) @outer), the same style observed
// across the example pack's tree-sitter query modules. Capture names are
// the fixed vocabulary spec §4.3 names for every language: @function,
// @method, @class, @interface, @type, @constant, @variable, @struct. Node
// type names per language are taken from the teacher's
// internal/chunk/languages.go LanguageConfig tables (FunctionTypes/
// MethodTypes/ClassTypes/...), translated from a type-list into a query.

const goQuery = `
(function_declaration name: (identifier) @function.name) @function
(method_declaration name: (field_identifier) @method.name) @method
(type_declaration (type_spec name: (type_identifier) @type.name (struct_type))) @struct
(type_declaration (type_spec name: (type_identifier) @type.name (interface_type))) @interface
(type_declaration (type_spec name: (type_identifier) @type.name)) @type
(const_declaration (const_spec name: (identifier) @constant.name)) @constant
(var_declaration (var_spec name: (identifier) @variable.name)) @variable
`

const tsQuery = `
(function_declaration name: (identifier) @function.name) @function
(method_definition name: (property_identifier) @method.name) @method
(class_declaration name: (type_identifier) @class.name) @class
(interface_declaration name: (type_identifier) @interface.name) @interface
(type_alias_declaration name: (type_identifier) @type.name) @type
(lexical_declaration (variable_declarator name: (identifier) @constant.name)) @constant
(variable_declaration (variable_declarator name: (identifier) @variable.name)) @variable
`

const jsQuery = `
(function_declaration name: (identifier) @function.name) @function
(method_definition name: (property_identifier) @method.name) @method
(class_declaration name: (identifier) @class.name) @class
(lexical_declaration (variable_declarator name: (identifier) @constant.name)) @constant
(variable_declaration (variable_declarator name: (identifier) @variable.name)) @variable
`

const pyQuery = `
(function_definition name: (identifier) @function.name) @function
(class_definition name: (identifier) @class.name) @class
(expression_statement (assignment left: (identifier) @variable.name)) @variable
`

const rustQuery = `
(function_item name: (identifier) @function.name) @function
(struct_item name: (type_identifier) @struct.name) @struct
(trait_item name: (type_identifier) @interface.name) @interface
(enum_item name: (type_identifier) @type.name) @type
(const_item name: (identifier) @constant.name) @constant
(static_item name: (identifier) @variable.name) @variable
`

const javaQuery = `
(method_declaration name: (identifier) @method.name) @method
(class_declaration name: (identifier) @class.name) @class
(interface_declaration name: (identifier) @interface.name) @interface
(enum_declaration name: (identifier) @type.name) @type
(field_declaration declarator: (variable_declarator name: (identifier) @variable.name)) @variable
`

const cQuery = `
(function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
(struct_specifier name: (type_identifier) @struct.name) @struct
(declaration (init_declarator declarator: (identifier) @variable.name)) @variable
`

const cppQuery = `
(function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
(class_specifier name: (type_identifier) @class.name) @class
(struct_specifier name: (type_identifier) @struct.name) @struct
(declaration (init_declarator declarator: (identifier) @variable.name)) @variable
`
