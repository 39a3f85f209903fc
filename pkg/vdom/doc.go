// Package vdom provides the virtual node tree used to describe form markup.
//
// VNode is the building block for elements, text, and fragments. Element
// constructors take a variadic list of attributes, children, and strings:
//
//	Form(Method("post"), Action("/signup"),
//	    Label(For("email"), Text("Email")),
//	    Input(Type("email"), ID("email"), Name("email")),
//	    Button(Type("submit"), Text("Sign up")),
//	)
//
// Trees are turned into HTML by the render package.
package vdom
