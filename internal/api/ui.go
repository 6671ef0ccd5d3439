package api

import (
	"net/http"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
)

// playgroundHTML is the browser playground: palette, program and stage.
// Blocks are dragged with the JSON descriptor as the transfer payload
// under blocks.PayloadMIME;
// the stage follows sprite.updated over /ws/events.
const playgroundHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Scratchy Playground</title>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body { font-family: sans-serif; background: #f4f1fb; color: #222; height: 100vh; display: flex; flex-direction: column; }
        header { background: #4c2a85; color: #fff; padding: 10px 20px; display: flex; justify-content: space-between; align-items: center; }
        header h1 { font-size: 18px; }
        #status { font-size: 12px; padding: 3px 8px; border-radius: 4px; background: #78350f; }
        #status.connected { background: #1b4332; }
        main { flex: 1; display: grid; grid-template-columns: 220px 1fr 420px; gap: 12px; padding: 12px; overflow: hidden; }
        section { background: #fff; border-radius: 8px; padding: 10px; overflow-y: auto; }
        h2 { font-size: 13px; text-transform: uppercase; color: #666; margin: 8px 0 4px; }
        .block { padding: 6px 10px; margin: 4px 0; border-radius: 6px; color: #fff; cursor: grab; font-size: 14px; user-select: none; }
        .motion { background: #4c97ff; } .looks { background: #9966ff; } .sound { background: #cf63cf; }
        .events { background: #ffbf00; color: #222; } .control { background: #ffab19; color: #222; } .sensing { background: #5cb1d6; }
        #program { min-height: 200px; border: 2px dashed #bbb; border-radius: 8px; padding: 8px; }
        #program.over { border-color: #4c2a85; background: #f0eaff; }
        #program .block { cursor: pointer; }
        .toolbar { display: flex; gap: 8px; margin-bottom: 8px; }
        button { padding: 6px 14px; border: none; border-radius: 4px; cursor: pointer; font-size: 14px; }
        #runBtn { background: #2d9d3a; color: #fff; } #clearBtn { background: #ccc; }
        #stage { position: relative; width: 400px; height: 300px; background: #fff; border: 1px solid #ccc; border-radius: 8px; overflow: hidden; }
        #sprite { position: absolute; width: 48px; height: 48px; margin: -24px 0 0 -24px; font-size: 40px; line-height: 48px; text-align: center; transition: all 0.2s; }
        #bubble { position: absolute; background: #fff; border: 1px solid #999; border-radius: 10px; padding: 4px 8px; font-size: 13px; white-space: nowrap; display: none; }
        #coins { font-size: 14px; }
    </style>
</head>
<body>
    <header>
        <h1>Scratchy Playground</h1>
        <span id="coins"></span>
        <span id="status">connecting</span>
    </header>
    <main>
        <section id="palette"></section>
        <section>
            <div class="toolbar">
                <button id="runBtn" onclick="runProgram()">&#9873; Run</button>
                <button id="clearBtn" onclick="post('/composition/clear').then(loadProgram)">Clear</button>
            </div>
            <div id="program"></div>
        </section>
        <section>
            <div id="stage"><div id="sprite">&#128049;</div><div id="bubble"></div></div>
        </section>
    </main>
    <script>
        const lang = new URLSearchParams(location.search).get('lang') || 'en';
        const payloadMIME = '` + blocks.PayloadMIME + `';
        const program = document.getElementById('program');

        function post(path, body) {
            return fetch(path, { method: 'POST', body: body || '' }).then(function(r) { return r.json(); });
        }

        function blockEl(b) {
            const el = document.createElement('div');
            el.className = 'block ' + b.type;
            el.textContent = lang === 'ar' ? b.labelAr : b.label;
            return el;
        }

        function loadPalette() {
            fetch('/catalog?lang=' + lang).then(function(r) { return r.json(); }).then(function(cat) {
                const root = document.getElementById('palette');
                root.innerHTML = '';
                (cat.groups || []).forEach(function(g) {
                    const h = document.createElement('h2');
                    h.textContent = g.label;
                    root.appendChild(h);
                    g.blocks.forEach(function(b) {
                        const el = blockEl(b);
                        el.draggable = true;
                        el.addEventListener('dragstart', function(e) {
                            e.dataTransfer.setData(payloadMIME, JSON.stringify(b));
                        });
                        root.appendChild(el);
                    });
                });
            });
        }

        function loadProgram() {
            fetch('/composition').then(function(r) { return r.json(); }).then(function(c) {
                program.innerHTML = '';
                (c.blocks || []).forEach(function(b, i) {
                    const el = blockEl(b);
                    el.title = 'click to remove';
                    el.onclick = function() {
                        post('/composition/remove', JSON.stringify({ index: i })).then(loadProgram);
                    };
                    program.appendChild(el);
                });
            });
        }

        function loadCoins() {
            fetch('/progress').then(function(r) { return r.json(); }).then(function(p) {
                document.getElementById('coins').textContent = '\u{1FA99} ' + p.coins;
            });
        }

        program.addEventListener('dragover', function(e) { e.preventDefault(); program.classList.add('over'); });
        program.addEventListener('dragleave', function() { program.classList.remove('over'); });
        program.addEventListener('drop', function(e) {
            e.preventDefault();
            program.classList.remove('over');
            post('/composition/drop', e.dataTransfer.getData(payloadMIME)).then(loadProgram);
        });

        function runProgram() { post('/run'); }

        function render(f) {
            const sprite = document.getElementById('sprite');
            const bubble = document.getElementById('bubble');
            sprite.style.left = f.left_pct + '%';
            sprite.style.top = f.top_pct + '%';
            sprite.style.transform = 'rotate(' + f.rotation + 'deg) scale(' + f.scale + ')';
            sprite.style.visibility = f.visible ? 'visible' : 'hidden';
            bubble.style.display = f.bubble ? 'block' : 'none';
            bubble.textContent = f.bubble || '';
            bubble.style.left = 'calc(' + f.left_pct + '% + 20px)';
            bubble.style.top = 'calc(' + f.top_pct + '% - 50px)';
        }

        function frameOf(s) {
            return {
                left_pct: 50 + s.x / 4, top_pct: 50 - s.y / 4,
                rotation: s.rotation, scale: s.size / 100,
                visible: s.visible, bubble: s.saying
            };
        }

        function connect() {
            const status = document.getElementById('status');
            const protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
            const ws = new WebSocket(protocol + '//' + location.host + '/ws/events?events=sprite.*,reward.granted');
            ws.onopen = function() { status.textContent = 'live'; status.className = 'connected'; };
            ws.onmessage = function(msg) {
                const e = JSON.parse(msg.data);
                if (e.event === 'sprite.updated' && e.fields) render(frameOf(e.fields));
                if (e.event === 'sprite.reset') fetch('/stage').then(function(r) { return r.json(); }).then(function(s) { render(s.frame); });
                if (e.event === 'reward.granted') loadCoins();
            };
            ws.onclose = function() { status.textContent = 'disconnected'; status.className = ''; setTimeout(connect, 2000); };
        }

        if (lang === 'ar') document.documentElement.dir = 'rtl';
        loadPalette();
        loadProgram();
        loadCoins();
        fetch('/stage').then(function(r) { return r.json(); }).then(function(s) { render(s.frame); });
        connect();
    </script>
</body>
</html>
`

func uiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(playgroundHTML))
}
