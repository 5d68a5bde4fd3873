package headless

import (
	"encoding/json"
	"fmt"
)

// factsScript reads every synchronous value in one round trip.
const factsScript = `(() => {
  const nav = window.navigator;
  const conn = nav.connection;
  return {
    href: window.location.href,
    cookie: document.cookie,
    screen: {
      height: window.screen.height,
      width: window.screen.width,
      pixelRatio: window.devicePixelRatio || 1,
    },
    cookieEnabled: !!nav.cookieEnabled,
    userAgent: nav.userAgent || "",
    platform: nav.platform || "",
    language: nav.language || "",
    permissions: !!(nav.permissions && nav.permissions.query),
    storage: !!(nav.storage && nav.storage.estimate),
    connection: conn ? {
      downlink: conn.downlink || 0,
      effectiveType: conn.effectiveType || "",
      type: conn.type || "",
    } : null,
    plugins: nav.plugins ? Array.from(nav.plugins, (p) => p.name) : null,
    serviceWorker: "serviceWorker" in nav,
    htmlElement: String(window.HTMLElement),
  };
})()`

const storageEstimateScript = `navigator.storage.estimate().then((e) => ({
  quota: e.quota || 0,
  usage: e.usage || 0,
}))`

const registrationsScript = `navigator.serviceWorker.getRegistrations().then((regs) => regs.map((r) => {
  const slot = (w) => (w ? { state: w.state } : null);
  return {
    scope: r.scope,
    waiting: slot(r.waiting),
    installing: slot(r.installing),
    active: slot(r.active),
  };
}))`

const fileSystemScript = `new Promise((resolve, reject) => {
  window.webkitRequestFileSystem(
    window.TEMPORARY, %d,
    () => resolve(true),
    () => reject(new Error("temporary filesystem denied")));
})`

const indexedDBOpenScript = `new Promise((resolve, reject) => {
  const req = window.indexedDB.open(%s);
  req.onsuccess = () => resolve(true);
  req.onerror = () => reject(new Error("indexedDB open failed"));
})`

const measureScript = `((selector) => {
  const el = document.querySelector(selector) || document.body;
  const rect = el.getBoundingClientRect();
  return {
    x: rect.left + window.scrollX,
    y: rect.top + window.scrollY,
    width: el.scrollWidth,
    height: el.scrollHeight,
  };
})(%s)`

func permissionScript(name string) string {
	return fmt.Sprintf(`navigator.permissions.query({ name: %s }).then((s) => s.state)`, quote(name))
}

func hasGlobalScript(name string) string {
	return fmt.Sprintf(`!!window[%s]`, quote(name))
}

func hasStylePropertyScript(name string) string {
	return fmt.Sprintf(`%s in document.documentElement.style`, quote(name))
}

func setItemScript(key, value string) string {
	return fmt.Sprintf(`(() => { window.localStorage.setItem(%s, %s); return true; })()`, quote(key), quote(value))
}

func removeItemScript(key string) string {
	return fmt.Sprintf(`(() => { window.localStorage.removeItem(%s); return true; })()`, quote(key))
}

const localStorageLengthScript = `window.localStorage.length`

// quote renders s as a JavaScript string literal.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
