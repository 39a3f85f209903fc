// Package toast provides feedback notifications for the signup page.
//
// Live sessions receive toasts as "signup:toast" events over the open
// WebSocket; the client script turns them into a notice element. Server
// rendered responses embed the same notice with Node.
//
// # Client-Side Handler
//
// The bundled live.js dispatches a DOM event for every toast frame, so
// pages can swap in their own presentation:
//
//	window.addEventListener("signup:toast", (e) => {
//	    const { level, message, title } = e.detail;
//	    showCustomToast(level, message);
//	});
//
// # Server-Side Usage
//
//	if err != nil {
//	    toast.Error(session, "Could not create your account")
//	    return err
//	}
//	toast.Success(session, "Account created")
package toast
