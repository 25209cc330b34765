package browser

import (
	"fmt"
	"strings"
)

// The name of the window function the bootstrap script calls to notify Go.
const BindingName = `scrollfriendNotify`

// Installed once per document.  Exposes window.__scrollfriend, which hands out
// element references, forwards DOM events and IntersectionObserver batches through
// the notify binding, and performs scroll writes.
var bootstrapScript = `(function() {
  if (window.__scrollfriend) {
    return;
  }

  var refs = {};
  var seq = 0;
  var listening = {};
  var observers = {};

  function notify(message) {
    if (typeof window.` + BindingName + ` === 'function') {
      window.` + BindingName + `(JSON.stringify(message));
    }
  }

  function scroller() {
    return document.scrollingElement || document.documentElement;
  }

  function ref(el) {
    if (el === window) {
      return 'window';
    }

    if (el === document || el === scroller()) {
      return 'document';
    }

    if (!el.__sfid) {
      seq += 1;
      el.__sfid = 'el' + seq;
      refs[el.__sfid] = el;
    }

    return el.__sfid;
  }

  function get(id) {
    if (id === 'window') {
      return window;
    } else if (id === 'document') {
      return scroller();
    }

    return refs[id] || null;
  }

  function box(r) {
    if (!r) {
      return null;
    }

    return {top: r.top, left: r.left, width: r.width, height: r.height};
  }

  function rect(el) {
    if (!el || el === window) {
      return {top: 0, left: 0, width: window.innerWidth, height: window.innerHeight};
    }

    return box(el.getBoundingClientRect());
  }

  function scrollState(el) {
    var doc = (el === window || el === scroller());

    if (doc) {
      el = scroller();
    }

    return {
      seq: el.__sfseq || 0,
      x: doc ? window.scrollX : el.scrollLeft,
      y: doc ? window.scrollY : el.scrollTop,
      width: el.scrollWidth,
      height: el.scrollHeight,
      clientWidth: doc ? window.innerWidth : el.clientWidth,
      clientHeight: doc ? window.innerHeight : el.clientHeight
    };
  }

  function describe(el) {
    var attrs = {};

    for (var i = 0; i < el.attributes.length; i++) {
      attrs[el.attributes[i].name] = el.attributes[i].value;
    }

    return {
      id: ref(el),
      tag: el.tagName.toLowerCase(),
      attributes: attrs,
      scroll: scrollState(el)
    };
  }

  function innermostText(el, text) {
    for (var i = 0; i < el.children.length; i++) {
      if (el.children[i].textContent.trim() === text) {
        return false;
      }
    }

    return true;
  }

  function query(type, expr) {
    var found = [];

    if (type === 'css') {
      found = Array.prototype.slice.call(document.querySelectorAll(expr));
    } else if (type === 'xpath') {
      var result = document.evaluate(expr, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);

      for (var i = 0; i < result.snapshotLength; i++) {
        found.push(result.snapshotItem(i));
      }
    } else if (type === 'text') {
      var all = document.querySelectorAll('body *');

      for (var j = 0; j < all.length; j++) {
        if (all[j].textContent.trim() === expr && innermostText(all[j], expr)) {
          found.push(all[j]);
        }
      }
    }

    return found.filter(function(el) {
      return el.nodeType === 1;
    }).map(describe);
  }

  function listen(id, name) {
    var key = id + '/' + name;

    if (listening[key]) {
      return;
    }

    var target = get(id);

    if (!target) {
      return;
    }

    var handler = function(e) {
      if (e.__scrollfriend) {
        return;
      }

      var message = {kind: 'event', target: id, name: name, detail: {}};

      if (name === 'scroll') {
        message.scroll = scrollState(target);
      } else if (name === 'click') {
        var href = target.getAttribute && target.getAttribute('href');

        if (href && href.charAt(0) === '#') {
          e.preventDefault();
          message.detail.href = href;
        }
      } else if (name === 'popstate') {
        message.detail.state = e.state;
        message.detail.url = location.hash || location.pathname;
      } else if (e.detail && typeof e.detail === 'object') {
        message.detail = e.detail;
      }

      notify(message);
    };

    // the document's scroll events are fired at the document itself
    var eventTarget = target;

    if (name === 'scroll' && (id === 'document' || id === 'window')) {
      eventTarget = document;
    }

    eventTarget.addEventListener(name, handler, {passive: (name === 'scroll')});
    listening[key] = {target: eventTarget, name: name, handler: handler};
  }

  function emit(id, name, detail, cancelable) {
    var target = get(id);

    if (!target) {
      return true;
    }

    var e = new CustomEvent(name, {detail: detail, cancelable: !!cancelable});
    e.__scrollfriend = true;

    return target.dispatchEvent(e);
  }

  function scrollTo(id, x, y, writeSeq) {
    var el = get(id);

    if (!el) {
      return;
    }

    if (el === window || el === scroller()) {
      scroller().__sfseq = writeSeq;
      window.scrollTo(x, y);
    } else {
      el.__sfseq = writeSeq;
      el.scrollLeft = x;
      el.scrollTop = y;
    }
  }

  function follow(id) {
    var el = get(id);

    if (el && el.getAttribute) {
      var href = el.getAttribute('href');

      if (href && href.charAt(0) === '#') {
        location.hash = href.slice(1);
      } else if (href) {
        location.href = href;
      }
    }
  }

  function observer(oid, rootId, margin, thresholds) {
    var root = rootId ? get(rootId) : null;

    // the document root means the viewport
    if (root === scroller()) {
      root = null;
    }

    observers[oid] = new IntersectionObserver(function(entries) {
      notify({
        kind: 'intersection',
        observer: oid,
        entries: entries.map(function(entry) {
          return {
            target: ref(entry.target),
            isIntersecting: entry.isIntersecting,
            ratio: entry.intersectionRatio,
            bounds: box(entry.boundingClientRect),
            intersection: box(entry.intersectionRect),
            root: box(entry.rootBounds),
            time: entry.time
          };
        })
      });
    }, {root: root, rootMargin: margin || '0px', threshold: thresholds});
  }

  function observe(oid, id) {
    var o = observers[oid];
    var el = get(id);

    if (o && el && el.nodeType === 1) {
      o.observe(el);
    }
  }

  function unobserve(oid, id) {
    var o = observers[oid];
    var el = get(id);

    if (o && el && el.nodeType === 1) {
      o.unobserve(el);
    }
  }

  function disconnect(oid) {
    if (observers[oid]) {
      observers[oid].disconnect();
      delete observers[oid];
    }
  }

  function state() {
    return {
      width: window.innerWidth,
      height: window.innerHeight,
      path: location.pathname,
      document: scrollState(scroller())
    };
  }

  function reset() {
    for (var key in listening) {
      var l = listening[key];
      l.target.removeEventListener(l.name, l.handler);
    }

    for (var oid in observers) {
      observers[oid].disconnect();
    }

    listening = {};
    observers = {};
  }

  window.addEventListener('resize', function() {
    notify({kind: 'resize', width: window.innerWidth, height: window.innerHeight});
  });

  window.__scrollfriend = {
    query: query,
    rect: function(id) { return rect(get(id)); },
    scroll: function(id) { var el = get(id); return el ? scrollState(el) : null; },
    listen: listen,
    emit: emit,
    scrollTo: scrollTo,
    follow: follow,
    observer: observer,
    observe: observe,
    unobserve: unobserve,
    disconnect: disconnect,
    state: state,
    reset: reset
  };
})();`

// Build a call to one of the bootstrap script's functions.  Arguments are encoded
// as JSON, which is always a valid Javascript literal.
func jsCall(function string, args ...interface{}) string {
	encoded := make([]string, len(args))

	for i, arg := range args {
		encoded[i] = jsonLiteral(arg)
	}

	return fmt.Sprintf("window.__scrollfriend.%s(%s)", function, strings.Join(encoded, `, `))
}
